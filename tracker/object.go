package tracker

import "sync"

// Object is the state of a tracked object as seen from outside its Engine
type Object struct {
	// ID is the unique identity assigned when the object was admitted
	ID int64
	// Label is the class label of the detection that created the object
	Label string
	// Score is the confidence of the detection that created the object
	Score float64
	// Box is the current bounding box in capture resolution pixels
	Box Rect
	// Misses is the number of consecutive failed tracker updates
	Misses int
	// Alive is false once the track has died
	Alive bool
}

// IDGenerator hands out monotonically increasing object identities, an ID is
// never reused during the lifetime of the generator
type IDGenerator struct {
	id int64
	sync.Mutex
}

// NewIDGenerator returns an ID generator starting at 1
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{}
}

// GetNext returns the next identity
func (g *IDGenerator) GetNext() int64 {
	g.Lock()
	defer g.Unlock()
	g.id++
	return g.id
}
