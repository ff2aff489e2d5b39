package render

import (
	"sort"
	"sync"

	"github.com/swdee/go-screentrack/tracker"
	"gocv.io/x/gocv"
)

// Overlay keeps the latest box of every tracked object and draws them onto
// frames.  It implements tracker.Notifier and tracker.Announcer, updates only
// take a short lock so tracking engines are never held up by drawing.
type Overlay struct {
	mu      sync.Mutex
	objects map[int64]tracker.Object
	trail   *tracker.Trail

	Font       Font
	TrailStyle TrailStyle
	// LineThickness of the box outline
	LineThickness int
}

// NewOverlay returns an overlay keeping trailSize points of history per
// object, 0 disables trails
func NewOverlay(trailSize int) *Overlay {

	o := &Overlay{
		objects:       make(map[int64]tracker.Object),
		Font:          DefaultFont(),
		TrailStyle:    DefaultTrailStyle(),
		LineThickness: 2,
	}

	if trailSize > 0 {
		o.trail = tracker.NewTrail(trailSize)
	}

	return o
}

// OnObjectAdded records a newly tracked object
func (o *Overlay) OnObjectAdded(obj tracker.Object) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.objects[obj.ID] = obj
}

// OnBoxUpdated moves the box of an object
func (o *Overlay) OnBoxUpdated(id int64, box tracker.Rect) {
	o.mu.Lock()
	obj, ok := o.objects[id]

	if !ok {
		obj = tracker.Object{ID: id, Alive: true}
	}

	obj.Box = box
	o.objects[id] = obj
	o.mu.Unlock()

	if o.trail != nil {
		o.trail.Add(id, box)
	}
}

// OnObjectRemoved stops drawing the object
func (o *Overlay) OnObjectRemoved(id int64) {
	o.mu.Lock()
	delete(o.objects, id)
	o.mu.Unlock()

	if o.trail != nil {
		o.trail.Remove(id)
	}
}

// Objects returns the objects currently drawn ordered by id
func (o *Overlay) Objects() []tracker.Object {
	o.mu.Lock()
	objs := make([]tracker.Object, 0, len(o.objects))

	for _, obj := range o.objects {
		objs = append(objs, obj)
	}
	o.mu.Unlock()

	sort.Slice(objs, func(i, j int) bool {
		return objs[i].ID < objs[j].ID
	})

	return objs
}

// Annotate draws the trails, boxes and captions onto img.  Scale is the
// capture to img resolution ratio.
func (o *Overlay) Annotate(img *gocv.Mat, scale float64) {

	objs := o.Objects()

	if o.trail != nil {
		Trail(img, objs, o.trail, scale, o.TrailStyle)
	}

	ObjectBoxes(img, objs, scale, o.Font, o.LineThickness)
}
