package world

// VisibilityTracker maintains, for every player, the symmetric pair of sets
// "who I can see" (knows) and "who can see me" (knownBy). Keeping both
// directions lets a departure be cleaned up in O(k) — walk the departing
// player's knownBy set — instead of an O(n) sweep over every other player.
type VisibilityTracker struct {
	knows   map[PlayerID]map[PlayerID]struct{}
	knownBy map[PlayerID]map[PlayerID]struct{}

	// scratch is reused across Update calls to turn the "currently visible"
	// slice into a set without allocating a fresh map every tick.
	scratch map[PlayerID]struct{}
}

func NewVisibilityTracker() *VisibilityTracker {
	return &VisibilityTracker{
		knows:   make(map[PlayerID]map[PlayerID]struct{}),
		knownBy: make(map[PlayerID]map[PlayerID]struct{}),
		scratch: make(map[PlayerID]struct{}),
	}
}

// Initialize registers id with empty visibility sets. Safe to call on an
// id that already has entries — it is a no-op in that case.
func (v *VisibilityTracker) Initialize(id PlayerID) {
	if _, ok := v.knows[id]; !ok {
		v.knows[id] = make(map[PlayerID]struct{})
	}
	if _, ok := v.knownBy[id]; !ok {
		v.knownBy[id] = make(map[PlayerID]struct{})
	}
}

// Update diffs id's previously known set against currentlyVisible and
// returns the ids that newly entered and left view this tick. Both slices
// are nil when there is no change.
func (v *VisibilityTracker) Update(id PlayerID, currentlyVisible []PlayerID) (entered, left []PlayerID) {
	known := v.knows[id]
	if known == nil {
		v.Initialize(id)
		known = v.knows[id]
	}

	for k := range v.scratch {
		delete(v.scratch, k)
	}
	for _, other := range currentlyVisible {
		if other == id {
			continue
		}
		v.scratch[other] = struct{}{}
	}

	for other := range v.scratch {
		if _, already := known[other]; !already {
			entered = append(entered, other)
		}
	}
	for other := range known {
		if _, still := v.scratch[other]; !still {
			left = append(left, other)
		}
	}

	for _, other := range entered {
		known[other] = struct{}{}
		v.addKnownBy(other, id)
	}
	for _, other := range left {
		delete(known, other)
		v.removeKnownBy(other, id)
	}

	return entered, left
}

func (v *VisibilityTracker) addKnownBy(observed, observer PlayerID) {
	set := v.knownBy[observed]
	if set == nil {
		set = make(map[PlayerID]struct{})
		v.knownBy[observed] = set
	}
	set[observer] = struct{}{}
}

func (v *VisibilityTracker) removeKnownBy(observed, observer PlayerID) {
	if set, ok := v.knownBy[observed]; ok {
		delete(set, observer)
	}
}

// Knows reports whether observer currently has target in its known set.
func (v *VisibilityTracker) Knows(observer, target PlayerID) bool {
	set, ok := v.knows[observer]
	if !ok {
		return false
	}
	_, ok = set[target]
	return ok
}

// KnownBy returns the ids that currently have id in their known set.
func (v *VisibilityTracker) KnownBy(id PlayerID) []PlayerID {
	set := v.knownBy[id]
	if len(set) == 0 {
		return nil
	}
	out := make([]PlayerID, 0, len(set))
	for observer := range set {
		out = append(out, observer)
	}
	return out
}

// NotifyObserversOfDeparture severs the edge between id and each of id's
// current observers that is no longer within rangeR of (x,y), as judged by
// posFn(observer). A nil posFn treats every observer as out of range — the
// case of id leaving the world entirely, where there is no "new position"
// to be near. Severed observers are returned and passed to notify, so the
// caller can emit a "left view" packet to an observer who would otherwise
// only discover the departure on its own next full Update.
func (v *VisibilityTracker) NotifyObserversOfDeparture(id PlayerID, x, y, rangeR int32, posFn func(observer PlayerID) (ox, oy int32, ok bool), notify func(observer PlayerID)) []PlayerID {
	observers := v.knownBy[id]
	if len(observers) == 0 {
		return nil
	}
	candidates := make([]PlayerID, 0, len(observers))
	for observer := range observers {
		candidates = append(candidates, observer)
	}

	var severed []PlayerID
	for _, observer := range candidates {
		if posFn != nil {
			if ox, oy, ok := posFn(observer); ok && chebyshev(x-ox, y-oy) <= rangeR {
				continue // still in range — not a departure from this observer's view
			}
		}
		if set, ok := v.knows[observer]; ok {
			delete(set, id)
		}
		delete(observers, observer)
		severed = append(severed, observer)
		if notify != nil {
			notify(observer)
		}
	}
	return severed
}

func chebyshev(dx, dy int32) int32 {
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	if dx > dy {
		return dx
	}
	return dy
}

// RemovePlayer tears down id's bookkeeping in both directions: everyone id
// knew is told id is no longer an observer, and everyone who knew id is
// told id is gone.
func (v *VisibilityTracker) RemovePlayer(id PlayerID) {
	for observed := range v.knows[id] {
		v.removeKnownBy(observed, id)
	}
	for observer := range v.knownBy[id] {
		if set, ok := v.knows[observer]; ok {
			delete(set, id)
		}
	}
	delete(v.knows, id)
	delete(v.knownBy, id)
}
