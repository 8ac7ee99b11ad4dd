package detector

import (
	"sort"

	"PriceSentinel/internal/model"
)

// Detect compares the baseline against a fresh snapshot and returns one event per item
// whose price went down. Items only in one of the two snapshots are ignored, as are
// unchanged and increased prices. Events are ordered by magnitude, largest first, with
// ties broken by item name so the output is fully determined by the inputs.
func Detect(old, fresh model.Snapshot) []model.DropEvent {
	var events []model.DropEvent
	for item, current := range fresh {
		previous, ok := old[item]
		if !ok || current >= previous {
			continue
		}
		events = append(events, model.DropEvent{
			Item:      item,
			Previous:  previous,
			Current:   current,
			Magnitude: previous - current,
		})
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].Magnitude != events[j].Magnitude {
			return events[i].Magnitude > events[j].Magnitude
		}
		return events[i].Item < events[j].Item
	})
	return events
}

// Top returns at most n leading events. n <= 0 returns all of them.
func Top(events []model.DropEvent, n int) []model.DropEvent {
	if n <= 0 || len(events) <= n {
		return events
	}
	return events[:n]
}

// Policy decides which drops are worth a notification.
type Policy struct {
	MinAmount  int64   // minimum drop in minor units
	MinPercent float64 // minimum drop relative to the previous price, 0-100
}

// Filter keeps the events that meet both thresholds, preserving order.
func (p Policy) Filter(events []model.DropEvent) []model.DropEvent {
	if p.MinAmount <= 0 && p.MinPercent <= 0 {
		return events
	}
	var kept []model.DropEvent
	for _, e := range events {
		if e.Magnitude < p.MinAmount {
			continue
		}
		if e.Percent() < p.MinPercent {
			continue
		}
		kept = append(kept, e)
	}
	return kept
}
