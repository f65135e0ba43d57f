//Package tracker assigns stable identities to per-frame detections by
//class-scoped nearest-centroid matching.
//
//A Tracker is not safe for concurrent use. Callers must run all Track
//calls of a frame, then EvictStale for that frame, before the next frame's
//Track calls begin.
package tracker

import (
	"math"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/chenBenjamin97/point-field/pkg/video"
)

//DefaultEvictionTimeout is how long an object may go unseen before its
//identity is dropped.
const DefaultEvictionTimeout = time.Second

//TrackedObject links an identity to a class and its last known center.
type TrackedObject struct {
	ID       int       `json:"id"`
	Class    string    `json:"class"`
	CenterX  float64   `json:"center_x"`
	CenterY  float64   `json:"center_y"`
	LastSeen time.Time `json:"last_seen"`
}

//Tracker owns the tracked-object table and the identity counter.
type Tracker struct {
	clock   clock.Clock
	objects map[int]*TrackedObject
	order   []int // ids in insertion order, oldest first
	lastID  int
}

//New creates an empty tracker reading the current time from clk.
//A nil clk uses the wall clock.
func New(clk clock.Clock) *Tracker {
	if clk == nil {
		clk = clock.New()
	}
	return &Tracker{
		clock:   clk,
		objects: make(map[int]*TrackedObject),
	}
}

//Track returns the identity for d, updating the matched object or creating
//a new one. The nearest same-class object wins when its center is strictly
//closer than the longer side of d's box; among equally near objects the
//oldest one wins. A match sets LastSeen to now, but LastSeen never moves
//backwards when the clock does.
func (t *Tracker) Track(d video.Detection) int {
	cx, cy := d.BBox.Center()
	gate := d.BBox.MaxSide()

	var match *TrackedObject
	minDist := math.Inf(1)
	for _, id := range t.order {
		obj := t.objects[id]
		if obj.Class != d.Class {
			continue
		}
		dist := math.Hypot(cx-obj.CenterX, cy-obj.CenterY)
		if dist < minDist && dist < gate {
			minDist = dist
			match = obj
		}
	}

	now := t.clock.Now()
	if match != nil {
		match.Class = d.Class
		match.CenterX, match.CenterY = cx, cy
		if now.After(match.LastSeen) {
			match.LastSeen = now
		}
		return match.ID
	}

	t.lastID++
	t.objects[t.lastID] = &TrackedObject{
		ID:       t.lastID,
		Class:    d.Class,
		CenterX:  cx,
		CenterY:  cy,
		LastSeen: now,
	}
	t.order = append(t.order, t.lastID)
	return t.lastID
}

//EvictStale removes every object last seen more than timeout before now and
//returns how many were removed.
func (t *Tracker) EvictStale(now time.Time, timeout time.Duration) int {
	kept := t.order[:0]
	removed := 0
	for _, id := range t.order {
		if now.Sub(t.objects[id].LastSeen) > timeout {
			delete(t.objects, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	t.order = kept
	return removed
}

//Get returns a copy of the object holding id.
func (t *Tracker) Get(id int) (TrackedObject, bool) {
	obj, ok := t.objects[id]
	if !ok {
		return TrackedObject{}, false
	}
	return *obj, true
}

//Objects returns copies of all live objects, oldest first.
func (t *Tracker) Objects() []TrackedObject {
	out := make([]TrackedObject, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, *t.objects[id])
	}
	return out
}

//Len returns the number of live objects.
func (t *Tracker) Len() int {
	return len(t.order)
}
