package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"PriceSentinel/internal/model"
)

func TestObserve(t *testing.T) {
	m := New()
	start := time.Unix(1_700_000_000, 0)
	m.Observe(&model.RunReport{
		StartedAt:    start,
		FinishedAt:   start.Add(2 * time.Second),
		Outcome:      model.OutcomeDrops,
		FetchedItems: 30,
		BaselineSize: 40,
		Drops:        make([]model.DropEvent, 3),
		Persisted:    true,
		NotifyErr:    errors.New("boom"),
	})
	m.Observe(&model.RunReport{
		StartedAt:  start,
		FinishedAt: start,
		Outcome:    model.OutcomeFetchFailed,
	})

	if got := testutil.ToFloat64(m.runsTotal.WithLabelValues("DROPS")); got != 1 {
		t.Errorf("runs_total{DROPS} = %v", got)
	}
	if got := testutil.ToFloat64(m.runsTotal.WithLabelValues("FETCH_FAILED")); got != 1 {
		t.Errorf("runs_total{FETCH_FAILED} = %v", got)
	}
	if got := testutil.ToFloat64(m.dropsTotal); got != 3 {
		t.Errorf("drops = %v", got)
	}
	if got := testutil.ToFloat64(m.itemsFetched); got != 30 {
		t.Errorf("items fetched should keep last successful value, got %v", got)
	}
	if got := testutil.ToFloat64(m.lastSuccessTS); got != float64(start.Add(2*time.Second).Unix()) {
		t.Errorf("last success = %v", got)
	}
	if got := testutil.ToFloat64(m.notifyErrors); got != 1 {
		t.Errorf("notify errors = %v", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.Observe(&model.RunReport{Outcome: model.OutcomeNoChange, Persisted: true})
	path := filepath.Join(t.TempDir(), "price_sentinel.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `price_sentinel_runs_total{outcome="NO_CHANGE"} 1`) {
		t.Errorf("textfile missing runs counter:\n%s", data)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.Observe(&model.RunReport{Outcome: model.OutcomeNoChange})
	ts := httptest.NewServer(m.Handler())
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "price_sentinel_run_duration_seconds") {
		t.Errorf("metrics output missing duration summary:\n%s", body)
	}
}
