package screentrack

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/swdee/go-screentrack/frame"
	"github.com/swdee/go-screentrack/postprocess"
	"github.com/swdee/go-screentrack/tracker"
)

// RegistryOptions configure a Registry
type RegistryOptions struct {
	// Capacity is the maximum number of concurrently tracked objects
	Capacity int
	// Engine holds the per object tracking parameters
	Engine tracker.EngineParams
	// NewVisual creates the visual tracker of each object
	NewVisual tracker.Factory
	// Notifier receives box updates, it is also told of new objects when it
	// implements tracker.Announcer
	Notifier tracker.Notifier
}

// entry is a tracked object and the goroutine running its engine
type entry struct {
	engine *tracker.Engine
	ctx    context.Context
	cancel context.CancelFunc
}

// Registry holds the tracked objects and enforces the capacity limit.  Each
// admitted object is tracked by its own goroutine until it dies or is
// evicted.
type Registry struct {
	mu      sync.Mutex
	objects map[int64]*entry
	closed  bool

	ids    *tracker.IDGenerator
	opts   RegistryOptions
	frames tracker.FrameSource
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRegistry returns a registry whose tracking engines read frames from
// frames and run until ctx is cancelled or Close is called
func NewRegistry(ctx context.Context, frames tracker.FrameSource, opts RegistryOptions) *Registry {

	if opts.Notifier == nil {
		opts.Notifier = tracker.NopNotifier{}
	}

	ctx, cancel := context.WithCancel(ctx)

	return &Registry{
		objects: make(map[int64]*entry),
		ids:     tracker.NewIDGenerator(),
		opts:    opts,
		frames:  frames,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Admit starts tracking the detection made on frame f.  It returns the new
// object id, or false when the registry is full or closed in which case the
// detection is dropped.
func (r *Registry) Admit(det postprocess.DetectResult, f *frame.Frame) (int64, bool) {

	obj := tracker.Object{
		Label: det.Label,
		Score: det.Probability,
		Box: det.Box.Rect(float64(f.Width()), float64(f.Height())).
			Scale(f.Scale),
		Alive: true,
	}

	ent, err := r.reserve(&obj, f.Scale)

	if err != nil {
		return 0, false
	}

	if a, ok := r.opts.Notifier.(tracker.Announcer); ok {
		a.OnObjectAdded(obj)
	}

	go func() {
		defer r.wg.Done()
		ent.engine.Run(ent.ctx, r.frames)
	}()

	return obj.ID, true
}

// reserve assigns an id to obj and inserts its engine if there is capacity
func (r *Registry) reserve(obj *tracker.Object, scale float64) (*entry, error) {

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, context.Canceled
	}

	if len(r.objects) >= r.opts.Capacity {
		return nil, fmt.Errorf("%w: %d objects", ErrCapacityExceeded, len(r.objects))
	}

	obj.ID = r.ids.GetNext()

	ctx, cancel := context.WithCancel(r.ctx)

	ent := &entry{
		engine: tracker.NewEngine(*obj, scale, r.opts.NewVisual,
			r.opts.Notifier, r.Evict, r.opts.Engine),
		ctx:    ctx,
		cancel: cancel,
	}

	r.objects[obj.ID] = ent
	r.wg.Add(1)

	return ent, nil
}

// Evict removes the object and stops its engine.  It is safe to call more
// than once and from the object's own engine.
func (r *Registry) Evict(id int64) {

	r.mu.Lock()
	ent, ok := r.objects[id]
	delete(r.objects, id)
	r.mu.Unlock()

	if ok {
		ent.cancel()
	}
}

// Len returns the number of tracked objects
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.objects)
}

// Snapshot returns a copy of the live tracked objects ordered by id
func (r *Registry) Snapshot() []tracker.Object {

	r.mu.Lock()
	engines := make([]*tracker.Engine, 0, len(r.objects))

	for _, ent := range r.objects {
		engines = append(engines, ent.engine)
	}
	r.mu.Unlock()

	objs := make([]tracker.Object, 0, len(engines))

	for _, e := range engines {
		if obj := e.Object(); obj.Alive {
			objs = append(objs, obj)
		}
	}

	sort.Slice(objs, func(i, j int) bool {
		return objs[i].ID < objs[j].ID
	})

	return objs
}

// Close stops all tracking engines and waits for them to exit
func (r *Registry) Close() {

	r.mu.Lock()
	r.closed = true
	r.objects = make(map[int64]*entry)
	r.mu.Unlock()

	r.cancel()
	r.wg.Wait()
}
