// Package history records cycle telemetry to a time-series database.
// Only telemetry is stored; the controller never reads it back.
package history

import (
	"context"

	"github.com/sweeney/greenhouse-controller/internal/logic"
)

// Recorder stores one point per control cycle.
type Recorder interface {
	Record(ctx context.Context, d logic.Decision) error
	Close()
}

// Measurement is the InfluxDB measurement name for cycle points.
const Measurement = "irrigation_cycle"

// NopRecorder discards everything. Used when no database is configured.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, logic.Decision) error { return nil }
func (NopRecorder) Close()                                       {}
