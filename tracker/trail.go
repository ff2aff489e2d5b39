package tracker

import "sync"

// Point represents the x,y coordinates of the center of a tracked box
type Point struct {
	X, Y int
}

// Track represents the center point history of a single object
type Track struct {
	points []Point
}

// Trail keeps a history of box centers per object id used for drawing a
// trail behind tracked objects
type Trail struct {
	// size is the maximum number of most recent points to keep in history
	size int
	// history of tracked points
	history map[int64]*Track
	sync.Mutex
}

// NewTrail returns a new trail history instance.  Size is the number of most
// recent points to keep and specifies the maximum length of the trail
func NewTrail(size int) *Trail {
	return &Trail{
		size:    size,
		history: make(map[int64]*Track),
	}
}

// Reset clears all history
func (t *Trail) Reset() {
	t.Lock()
	defer t.Unlock()

	t.history = make(map[int64]*Track)
}

// Add the center point of box to the history of the object
func (t *Trail) Add(id int64, box Rect) {
	t.Lock()
	defer t.Unlock()

	track, exists := t.history[id]

	if !exists {
		track = &Track{}
		t.history[id] = track
	}

	x, y := box.Center()

	track.points = append(track.points, Point{
		X: int(x),
		Y: int(y),
	})

	// drop oldest point once history is exceeded
	if len(track.points) > t.size {
		track.points = track.points[1:]
	}
}

// Remove drops the history of the object
func (t *Trail) Remove(id int64) {
	t.Lock()
	defer t.Unlock()

	delete(t.history, id)
}

// GetPoints returns a copy of the point history for an object id
func (t *Trail) GetPoints(id int64) []Point {
	t.Lock()
	defer t.Unlock()

	track, exists := t.history[id]

	if !exists {
		// no history yet
		return nil
	}

	points := make([]Point, len(track.points))
	copy(points, track.points)

	return points
}
