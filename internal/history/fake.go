package history

import (
	"context"

	"github.com/sweeney/greenhouse-controller/internal/logic"
)

// FakeRecorder records decisions for test assertions.
type FakeRecorder struct {
	Decisions   []logic.Decision
	RecordError error
	Closed      bool
}

// Record stores d unless RecordError is set.
func (f *FakeRecorder) Record(_ context.Context, d logic.Decision) error {
	if f.RecordError != nil {
		return f.RecordError
	}
	f.Decisions = append(f.Decisions, d)
	return nil
}

// Close marks the recorder closed.
func (f *FakeRecorder) Close() {
	f.Closed = true
}
