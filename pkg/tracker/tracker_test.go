package tracker

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chenBenjamin97/point-field/pkg/video"
)

func det(class string, x, y, w, h float64) video.Detection {
	return video.Detection{Class: class, Score: 0.9, BBox: video.BoundingBox{X: x, Y: y, Width: w, Height: h}}
}

func TestTrackMatchStability(t *testing.T) {
	tr := New(clock.NewMock())

	first := tr.Track(det("car", 90, 90, 20, 20))
	second := tr.Track(det("car", 95, 93, 20, 20))

	assert.Equal(t, first, second)
	obj, ok := tr.Get(first)
	require.True(t, ok)
	assert.Equal(t, 105.0, obj.CenterX)
	assert.Equal(t, 103.0, obj.CenterY)
	assert.Equal(t, 1, tr.Len())
}

func TestTrackGatingRejection(t *testing.T) {
	tr := New(clock.NewMock())

	first := tr.Track(det("car", 90, 90, 20, 20))
	far := tr.Track(det("car", 490, 490, 20, 20))

	assert.Equal(t, first+1, far)
	assert.Equal(t, 2, tr.Len())
}

func TestTrackGateIsStrict(t *testing.T) {
	tr := New(clock.NewMock())

	first := tr.Track(det("car", 0, 0, 20, 20))
	//center moves exactly 20px, which equals max(w, h)
	next := tr.Track(det("car", 20, 0, 20, 20))

	assert.NotEqual(t, first, next)
}

func TestTrackGateUsesLongerSide(t *testing.T) {
	tr := New(clock.NewMock())

	first := tr.Track(det("bus", 0, 0, 60, 10))
	//30px away: beyond the 10px height, inside the 60px width
	next := tr.Track(det("bus", 30, 0, 60, 10))

	assert.Equal(t, first, next)
}

func TestTrackClassIsolation(t *testing.T) {
	tr := New(clock.NewMock())

	car := tr.Track(det("car", 90, 90, 20, 20))
	dog := tr.Track(det("dog", 90, 90, 20, 20))

	assert.NotEqual(t, car, dog)
	obj, ok := tr.Get(car)
	require.True(t, ok)
	assert.Equal(t, "car", obj.Class)
}

func TestTrackTieBreakOldestWins(t *testing.T) {
	for i := 0; i < 20; i++ {
		tr := New(clock.NewMock())

		left := tr.Track(det("person", 90, 90, 20, 20))  // center (100,100)
		right := tr.Track(det("person", 110, 90, 20, 20)) // center (120,100)
		require.NotEqual(t, left, right)

		//center (110,100) is 10px from both
		got := tr.Track(det("person", 100, 90, 20, 20))
		assert.Equal(t, left, got)
	}
}

func TestTrackPicksNearest(t *testing.T) {
	tr := New(clock.NewMock())

	far := tr.Track(det("cat", 0, 0, 40, 40))   // center (20,20)
	near := tr.Track(det("cat", 40, 0, 40, 40)) // center (60,20)
	require.NotEqual(t, far, near)

	//center (70,20), both inside the 100px gate
	got := tr.Track(det("cat", 20, -30, 100, 100))
	assert.Equal(t, near, got)
}

func TestTrackZeroAreaAlwaysMints(t *testing.T) {
	tr := New(clock.NewMock())

	a := tr.Track(det("car", 10, 10, 0, 0))
	b := tr.Track(det("car", 10, 10, 0, 0))

	assert.NotEqual(t, a, b)
}

func TestTrackNegativeSizeIsNotRejected(t *testing.T) {
	tr := New(clock.NewMock())

	id := tr.Track(video.Detection{Class: "car", Score: -1, BBox: video.BoundingBox{X: 10, Y: 10, Width: -4, Height: -4}})
	obj, ok := tr.Get(id)
	require.True(t, ok)
	assert.Equal(t, 8.0, obj.CenterX)
	assert.Equal(t, 8.0, obj.CenterY)
}

func TestEvictStale(t *testing.T) {
	mock := clock.NewMock()
	tr := New(mock)
	start := mock.Now()

	id := tr.Track(det("car", 90, 90, 20, 20))

	removed := tr.EvictStale(start.Add(999*time.Millisecond), time.Second)
	assert.Equal(t, 0, removed)
	_, ok := tr.Get(id)
	assert.True(t, ok)

	removed = tr.EvictStale(start.Add(1001*time.Millisecond), time.Second)
	assert.Equal(t, 1, removed)
	_, ok = tr.Get(id)
	assert.False(t, ok)
}

func TestEvictStaleBoundaryKeeps(t *testing.T) {
	mock := clock.NewMock()
	tr := New(mock)

	tr.Track(det("car", 0, 0, 10, 10))
	assert.Equal(t, 0, tr.EvictStale(mock.Now().Add(time.Second), time.Second))
}

func TestEvictStaleKeepsRefreshed(t *testing.T) {
	mock := clock.NewMock()
	tr := New(mock)

	old := tr.Track(det("car", 0, 0, 20, 20))
	fresh := tr.Track(det("dog", 200, 200, 20, 20))

	mock.Add(800 * time.Millisecond)
	assert.Equal(t, fresh, tr.Track(det("dog", 202, 201, 20, 20)))

	mock.Add(400 * time.Millisecond)
	tr.EvictStale(mock.Now(), DefaultEvictionTimeout)

	_, ok := tr.Get(old)
	assert.False(t, ok)
	_, ok = tr.Get(fresh)
	assert.True(t, ok)
}

func TestIdentitiesNeverReused(t *testing.T) {
	mock := clock.NewMock()
	tr := New(mock)

	seen := map[int]bool{}
	last := 0
	for frame := 0; frame < 10; frame++ {
		id := tr.Track(det("car", float64(frame*500), 0, 20, 20))
		assert.False(t, seen[id], "id %d reused", id)
		assert.Greater(t, id, last)
		seen[id] = true
		last = id

		mock.Add(2 * time.Second)
		tr.EvictStale(mock.Now(), DefaultEvictionTimeout)
		assert.Equal(t, 0, tr.Len())
	}
	assert.Equal(t, 10, last)
}

func TestIdentitiesStartAtOne(t *testing.T) {
	tr := New(nil)
	assert.Equal(t, 1, tr.Track(det("car", 0, 0, 1, 1)))
}

func TestLastSeenUpdatedOnMatch(t *testing.T) {
	mock := clock.NewMock()
	tr := New(mock)

	id := tr.Track(det("car", 0, 0, 20, 20))
	first, _ := tr.Get(id)

	mock.Add(300 * time.Millisecond)
	tr.Track(det("car", 1, 1, 20, 20))
	second, _ := tr.Get(id)

	assert.Equal(t, 300*time.Millisecond, second.LastSeen.Sub(first.LastSeen))
}

func TestLastSeenNeverMovesBackwards(t *testing.T) {
	mock := clock.NewMock()
	tr := New(mock)
	start := mock.Now()

	id := tr.Track(det("car", 0, 0, 20, 20))
	mock.Add(time.Second)
	tr.Track(det("car", 1, 1, 20, 20))

	mock.Set(start)
	assert.Equal(t, id, tr.Track(det("car", 2, 2, 20, 20)))
	obj, ok := tr.Get(id)
	require.True(t, ok)
	assert.Equal(t, start.Add(time.Second), obj.LastSeen)
}

func TestObjectsInsertionOrder(t *testing.T) {
	mock := clock.NewMock()
	tr := New(mock)

	a := tr.Track(det("car", 0, 0, 10, 10))
	b := tr.Track(det("dog", 0, 0, 10, 10))
	c := tr.Track(det("cat", 0, 0, 10, 10))

	objs := tr.Objects()
	require.Len(t, objs, 3)
	assert.Equal(t, []int{a, b, c}, []int{objs[0].ID, objs[1].ID, objs[2].ID})
}

func TestIndependentTrackers(t *testing.T) {
	one := New(clock.NewMock())
	two := New(clock.NewMock())

	assert.Equal(t, 1, one.Track(det("car", 0, 0, 10, 10)))
	assert.Equal(t, 2, one.Track(det("car", 500, 0, 10, 10)))
	assert.Equal(t, 1, two.Track(det("car", 0, 0, 10, 10)))
}
