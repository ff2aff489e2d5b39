package screentrack

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swdee/go-screentrack/frame"
	"github.com/swdee/go-screentrack/tracker"
)

// countingNotifier records announcements and removals
type countingNotifier struct {
	mu      sync.Mutex
	added   []int64
	removed []int64
	updates int
}

func (c *countingNotifier) OnObjectAdded(obj tracker.Object) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.added = append(c.added, obj.ID)
}

func (c *countingNotifier) OnBoxUpdated(id int64, box tracker.Rect) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updates++
}

func (c *countingNotifier) OnObjectRemoved(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removed = append(c.removed, id)
}

func (c *countingNotifier) removedIDs() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int64(nil), c.removed...)
}

func newTestRegistry(store *frame.Store, capacity int, fail bool,
	notify tracker.Notifier) *Registry {

	return NewRegistry(context.Background(), store, RegistryOptions{
		Capacity: capacity,
		Engine: tracker.EngineParams{
			MaxMisses: 0,
			Kalman:    tracker.DefaultKalmanParams(),
		},
		NewVisual: stillFactory(fail),
		Notifier:  notify,
	})
}

func TestRegistryCapacity(t *testing.T) {

	defer quietLogs()()

	store := frame.NewStore()
	defer store.Close()

	f := newFrame(bgrRed)
	defer f.Release()

	notify := &countingNotifier{}
	reg := newTestRegistry(store, 2, false, notify)

	var admitted []int64

	for i := 0; i < 3; i++ {
		if id, ok := reg.Admit(radarDetection(0.9), f); ok {
			admitted = append(admitted, id)
		}
	}

	assert.Equal(t, []int64{1, 2}, admitted)
	assert.Equal(t, 2, reg.Len())

	notify.mu.Lock()
	assert.Equal(t, []int64{1, 2}, notify.added)
	notify.mu.Unlock()

	// box is in source resolution, 10% of 1920x1080 centered
	snap := reg.Snapshot()
	require.Len(t, snap, 2)

	expected := tracker.Object{
		ID:    1,
		Label: "FMCW-Radar-Output",
		Score: 0.9,
		Box:   tracker.NewRect(864, 486, 192, 108),
		Alive: true,
	}

	opt := cmp.Comparer(func(a, b float64) bool {
		d := a - b
		return d < 1e-6 && d > -1e-6
	})

	if diff := cmp.Diff(expected, snap[0], opt); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, int64(2), snap[1].ID)

	reg.Evict(1)
	reg.Evict(1)
	assert.Equal(t, 1, reg.Len())

	// capacity freed by eviction, dropped detections use no id and ids
	// are not reused
	id, ok := reg.Admit(radarDetection(0.9), f)
	assert.True(t, ok)
	assert.Equal(t, int64(3), id)

	reg.Close()
	assert.Equal(t, 0, reg.Len())

	_, ok = reg.Admit(radarDetection(0.9), f)
	assert.False(t, ok)

	assert.ElementsMatch(t, []int64{1, 2, 3}, notify.removedIDs())
}

func TestRegistryEvictsDeadObjects(t *testing.T) {

	defer quietLogs()()

	store := frame.NewStore()
	defer store.Close()

	stop := make(chan struct{})
	done := make(chan struct{})

	go func() {
		publishFrames(store, stop)
		close(done)
	}()

	notify := &countingNotifier{}
	reg := newTestRegistry(store, 10, true, notify)

	f := newFrame(bgrRed)
	defer f.Release()

	_, ok := reg.Admit(radarDetection(0.9), f)
	require.True(t, ok)

	require.Eventually(t, func() bool {
		return reg.Len() == 0
	}, 2*time.Second, 5*time.Millisecond)

	close(stop)
	<-done
	reg.Close()

	assert.Equal(t, []int64{1}, notify.removedIDs())
	assert.Empty(t, reg.Snapshot())
}

func TestRegistrySnapshotDuringEviction(t *testing.T) {

	defer quietLogs()()

	store := frame.NewStore()
	defer store.Close()

	reg := newTestRegistry(store, 100, false, nil)
	defer reg.Close()

	f := newFrame(bgrRed)
	defer f.Release()

	for i := 0; i < 50; i++ {
		reg.Admit(radarDetection(0.9), f)
	}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for id := int64(1); id <= 50; id++ {
			reg.Evict(id)
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			for _, obj := range reg.Snapshot() {
				assert.True(t, obj.Alive)
			}
		}
	}()

	wg.Wait()
	assert.Equal(t, 0, reg.Len())
}
