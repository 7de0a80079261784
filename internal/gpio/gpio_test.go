package gpio

import (
	"errors"
	"testing"

	"github.com/sweeney/greenhouse-controller/internal/logic"
)

func TestLevel(t *testing.T) {
	tests := []struct {
		on, activeLow bool
		want          int
	}{
		{true, false, 1},
		{false, false, 0},
		{true, true, 0},
		{false, true, 1},
	}
	for _, tt := range tests {
		if got := Level(tt.on, tt.activeLow); got != tt.want {
			t.Errorf("Level(%v, %v) = %d, want %d", tt.on, tt.activeLow, got, tt.want)
		}
	}
}

func TestLevelsActiveLowRelay(t *testing.T) {
	p := Polarity{RelayActiveLow: true}

	on := Levels(logic.CommandFor(true), p)
	if on != [4]int{0, 1, 0, 1} {
		t.Errorf("pump on: got %v", on)
	}
	off := Levels(logic.CommandFor(false), p)
	if off != [4]int{1, 0, 1, 0} {
		t.Errorf("pump off: got %v", off)
	}
}

func TestLevelsActiveHighRelay(t *testing.T) {
	p := Polarity{RelayActiveLow: false}

	on := Levels(logic.CommandFor(true), p)
	if on != [4]int{1, 1, 0, 1} {
		t.Errorf("pump on: got %v", on)
	}
	safe := Levels(logic.SafeCommand(), p)
	if safe != [4]int{0, 0, 0, 1} {
		t.Errorf("safe: got %v", safe)
	}
}

func TestPolarityOnlyAffectsRelay(t *testing.T) {
	cmd := logic.CommandFor(true)
	low := Levels(cmd, Polarity{RelayActiveLow: true})
	high := Levels(cmd, Polarity{RelayActiveLow: false})
	if low[0] == high[0] {
		t.Error("relay level should depend on polarity")
	}
	if low[1] != high[1] || low[2] != high[2] || low[3] != high[3] {
		t.Errorf("buzzer and LEDs should not depend on polarity: %v vs %v", low, high)
	}
}

func TestFakeActuatorRecords(t *testing.T) {
	f := NewFakeActuator(Polarity{RelayActiveLow: true})

	// Level-driven: identical commands are still written.
	f.Apply(logic.CommandFor(true))
	f.Apply(logic.CommandFor(true))

	if len(f.Commands) != 2 {
		t.Fatalf("expected 2 commands, got %d", len(f.Commands))
	}
	if f.Levels[1][0] != 0 {
		t.Errorf("active-low relay should be driven low, got %d", f.Levels[1][0])
	}
	if !f.Last().Pump {
		t.Error("last command should have pump on")
	}
}

func TestFakeActuatorCloseDrivesIdleState(t *testing.T) {
	f := NewFakeActuator(Polarity{RelayActiveLow: true})
	f.Apply(logic.SafeCommand())
	f.Close()

	if !f.Closed {
		t.Error("should be closed")
	}
	if f.Last() != logic.IdleCommand() {
		t.Errorf("last command: got %+v, want idle", f.Last())
	}
	// Relay released high, buzzer off, green on, red off.
	if got := f.Levels[len(f.Levels)-1]; got != [4]int{1, 0, 1, 0} {
		t.Errorf("idle levels: got %v, want [1 0 1 0]", got)
	}
}

func TestIdleCommandLightsOkOnly(t *testing.T) {
	cmd := logic.IdleCommand()
	if cmd.Pump || cmd.Alert || cmd.IndicatorWarn || !cmd.IndicatorOK {
		t.Errorf("idle command: got %+v", cmd)
	}
}

func TestFakeActuatorError(t *testing.T) {
	f := NewFakeActuator(Polarity{})
	f.ApplyError = errors.New("line busy")
	if err := f.Apply(logic.CommandFor(false)); err == nil {
		t.Error("expected error")
	}
	if len(f.Commands) != 1 {
		t.Error("command should be recorded even on error")
	}
}
