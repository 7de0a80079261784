package sensor

import (
	"errors"
	"testing"

	"github.com/sweeney/greenhouse-controller/internal/logic"
)

func TestFakeReaderRead(t *testing.T) {
	f := NewFakeReader([]logic.SensorSnapshot{
		{SoilRaw: 3000, Valid: true},
		{SoilRaw: 4000, Valid: false},
	})

	s, err := f.Read()
	if err != nil || s.SoilRaw != 3000 || !s.Valid {
		t.Errorf("sample 0: got %+v, %v", s, err)
	}
	s, _ = f.Read()
	if s.SoilRaw != 4000 || s.Valid {
		t.Errorf("sample 1: got %+v", s)
	}
	// Exhausted: repeats the last sample.
	s, _ = f.Read()
	if s.SoilRaw != 4000 {
		t.Errorf("repeat: got %+v", s)
	}
}

func TestFakeReaderErrors(t *testing.T) {
	if _, err := NewFakeReader(nil).Read(); err == nil {
		t.Error("expected error with no samples")
	}

	f := NewFakeReader([]logic.SensorSnapshot{{Valid: true}})
	f.ReadError = errors.New("simulated error")
	if _, err := f.Read(); err == nil || err.Error() != "simulated error" {
		t.Errorf("unexpected error: %v", err)
	}

	f.Close()
	if !f.Closed {
		t.Error("should be closed after Close()")
	}
}
