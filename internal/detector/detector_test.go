package detector

import (
	"fmt"
	"testing"

	"PriceSentinel/internal/model"
)

func TestDetect_Scenario(t *testing.T) {
	old := model.Snapshot{"ShoeA": 10000, "ShoeB": 5000}
	fresh := model.Snapshot{"ShoeA": 8000, "ShoeB": 5000, "ShoeC": 3000}

	events := Detect(old, fresh)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d: %+v", len(events), events)
	}
	want := model.DropEvent{Item: "ShoeA", Previous: 10000, Current: 8000, Magnitude: 2000}
	if events[0] != want {
		t.Errorf("expected %+v, got %+v", want, events[0])
	}
}

func TestDetect_SelfIsEmpty(t *testing.T) {
	snaps := []model.Snapshot{
		nil,
		{},
		{"A": 0},
		{"A": 100, "B": 200, "C": 300},
	}
	for _, s := range snaps {
		if events := Detect(s, s); len(events) != 0 {
			t.Errorf("Detect(%v, %v) should be empty, got %+v", s, s, events)
		}
	}
}

func TestDetect_IgnoresNewDelistedAndIncreases(t *testing.T) {
	old := model.Snapshot{"Delisted": 900, "Up": 100, "Same": 500}
	fresh := model.Snapshot{"New": 1, "Up": 150, "Same": 500}

	if events := Detect(old, fresh); len(events) != 0 {
		t.Errorf("expected no events, got %+v", events)
	}
}

func TestDetect_EmptyInputs(t *testing.T) {
	if events := Detect(nil, model.Snapshot{"A": 1}); len(events) != 0 {
		t.Errorf("first run should produce no drops, got %+v", events)
	}
	if events := Detect(model.Snapshot{"A": 1}, model.Snapshot{}); len(events) != 0 {
		t.Errorf("empty fresh snapshot should produce no drops, got %+v", events)
	}
}

func TestDetect_OrderAndCompleteness(t *testing.T) {
	old := model.Snapshot{"A": 1000, "B": 1000, "C": 1000, "D": 1000, "E": 1000, "F": 50}
	fresh := model.Snapshot{"A": 900, "B": 500, "C": 990, "D": 500, "E": 1200, "F": 0}

	events := Detect(old, fresh)
	wantOrder := []string{"B", "D", "A", "F", "C"}
	if len(events) != len(wantOrder) {
		t.Fatalf("expected %d events, got %d: %+v", len(wantOrder), len(events), events)
	}
	seen := map[string]bool{}
	for i, e := range events {
		if e.Item != wantOrder[i] {
			t.Errorf("position %d: expected %s, got %s", i, wantOrder[i], e.Item)
		}
		if seen[e.Item] {
			t.Errorf("duplicate event for %s", e.Item)
		}
		seen[e.Item] = true
		if e.Magnitude != old[e.Item]-fresh[e.Item] || e.Magnitude <= 0 {
			t.Errorf("%s: bad magnitude %d", e.Item, e.Magnitude)
		}
		if i > 0 && events[i-1].Magnitude < e.Magnitude {
			t.Errorf("not sorted descending at %d", i)
		}
	}
}

func TestDetect_Deterministic(t *testing.T) {
	old := model.Snapshot{}
	fresh := model.Snapshot{}
	for i := 0; i < 50; i++ {
		name := fmt.Sprintf("item-%02d", i)
		old[name] = 1000
		fresh[name] = 1000 - int64(i%5)*10
	}
	first := Detect(old, fresh)
	for run := 0; run < 20; run++ {
		again := Detect(old, fresh)
		if len(again) != len(first) {
			t.Fatalf("length changed between runs: %d vs %d", len(again), len(first))
		}
		for i := range first {
			if first[i] != again[i] {
				t.Fatalf("run %d: order changed at %d: %+v vs %+v", run, i, first[i], again[i])
			}
		}
	}
}

func TestTop(t *testing.T) {
	events := make([]model.DropEvent, 7)
	for i := range events {
		events[i] = model.DropEvent{Item: fmt.Sprint(i), Magnitude: int64(7 - i)}
	}
	tests := []struct {
		n, want int
	}{
		{5, 5},
		{7, 7},
		{10, 7},
		{0, 7},
		{-1, 7},
	}
	for _, tt := range tests {
		if got := Top(events, tt.n); len(got) != tt.want {
			t.Errorf("Top(%d): expected %d events, got %d", tt.n, tt.want, len(got))
		}
	}
	if got := Top(events, 2); got[0].Item != "0" || got[1].Item != "1" {
		t.Errorf("Top should keep leading events, got %+v", got)
	}
}

func TestPolicy_Filter(t *testing.T) {
	events := []model.DropEvent{
		{Item: "big", Previous: 10000, Current: 5000, Magnitude: 5000},  // 50%
		{Item: "mid", Previous: 100000, Current: 98000, Magnitude: 2000}, // 2%
		{Item: "tiny", Previous: 1000, Current: 950, Magnitude: 50},      // 5%
	}
	tests := []struct {
		name   string
		policy Policy
		want   []string
	}{
		{"zero policy keeps all", Policy{}, []string{"big", "mid", "tiny"}},
		{"amount only", Policy{MinAmount: 1000}, []string{"big", "mid"}},
		{"percent only", Policy{MinPercent: 5}, []string{"big", "tiny"}},
		{"both", Policy{MinAmount: 1000, MinPercent: 5}, []string{"big"}},
		{"none pass", Policy{MinAmount: 1000000}, nil},
	}
	for _, tt := range tests {
		got := tt.policy.Filter(events)
		if len(got) != len(tt.want) {
			t.Errorf("%s: expected %v, got %+v", tt.name, tt.want, got)
			continue
		}
		for i := range got {
			if got[i].Item != tt.want[i] {
				t.Errorf("%s: position %d expected %s, got %s", tt.name, i, tt.want[i], got[i].Item)
			}
		}
	}
}
