package model

// Snapshot maps an item identifier to its price in minor currency units (cents).
type Snapshot map[string]int64

// Clone returns an independent copy. A nil snapshot clones to an empty one.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Equal reports whether both snapshots hold the same keys and prices.
func (s Snapshot) Equal(other Snapshot) bool {
	if len(s) != len(other) {
		return false
	}
	for k, v := range s {
		if ov, ok := other[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// DropEvent is a detected price decrease for one item.
type DropEvent struct {
	Item      string
	Previous  int64
	Current   int64
	Magnitude int64 // Previous - Current, always > 0
}

// Percent returns the drop as a percentage of the previous price.
func (e DropEvent) Percent() float64 {
	if e.Previous <= 0 {
		return 0
	}
	return float64(e.Magnitude) / float64(e.Previous) * 100
}
