package recorder

import "PriceSentinel/internal/model"

// Recorder persists run history for later analysis. It never holds the baseline.
type Recorder interface {
	RecordRun(r *model.RunReport) error
	Close() error
}
