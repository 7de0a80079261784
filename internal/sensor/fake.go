package sensor

import (
	"errors"

	"github.com/sweeney/greenhouse-controller/internal/logic"
)

// FakeReader is a test double that returns scripted snapshots.
type FakeReader struct {
	// Samples contains scripted snapshots. Each call to Read() consumes the
	// next one; the last is repeated once exhausted.
	Samples []logic.SensorSnapshot

	index int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// NewFakeReader creates a FakeReader with the given samples.
func NewFakeReader(samples []logic.SensorSnapshot) *FakeReader {
	return &FakeReader{Samples: samples}
}

// Read returns the next scripted sample.
func (f *FakeReader) Read() (logic.SensorSnapshot, error) {
	if f.ReadError != nil {
		return logic.SensorSnapshot{}, f.ReadError
	}

	if len(f.Samples) == 0 {
		return logic.SensorSnapshot{}, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return sample, nil
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.Closed = true
	return nil
}
