package gpio

import "github.com/sweeney/greenhouse-controller/internal/logic"

// FakeActuator is a test double that records applied commands.
type FakeActuator struct {
	// Commands contains every command passed to Apply, in order.
	Commands []logic.Command

	// Polarity is used to compute Levels.
	Polarity Polarity

	// Levels contains the line values each Apply would have written.
	Levels [][4]int

	// ApplyError, if set, will be returned by Apply (the command is still recorded).
	ApplyError error

	// Closed tracks if Close was called
	Closed bool
}

// NewFakeActuator creates a FakeActuator with the given relay polarity.
func NewFakeActuator(p Polarity) *FakeActuator {
	return &FakeActuator{Polarity: p}
}

// Apply records the command.
func (f *FakeActuator) Apply(cmd logic.Command) error {
	f.Commands = append(f.Commands, cmd)
	f.Levels = append(f.Levels, Levels(cmd, f.Polarity))
	return f.ApplyError
}

// Close records a final idle command and marks the actuator closed.
func (f *FakeActuator) Close() error {
	f.Apply(logic.IdleCommand())
	f.Closed = true
	return nil
}

// Last returns the most recent command, or the zero command if none.
func (f *FakeActuator) Last() logic.Command {
	if len(f.Commands) == 0 {
		return logic.Command{}
	}
	return f.Commands[len(f.Commands)-1]
}
