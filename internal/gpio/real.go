//go:build linux

package gpio

import (
	"fmt"

	"github.com/sweeney/greenhouse-controller/internal/logic"
	"github.com/warthog618/go-gpiocdev"
)

const consumer = "greenhouse-controller"

// RealActuator drives actuators on actual hardware using the Linux GPIO
// character device.
type RealActuator struct {
	chip     *gpiocdev.Chip
	lines    [4]*gpiocdev.Line // relay, buzzer, green, red
	polarity Polarity
}

// NewRealActuator requests the four output lines, initialised to the idle
// state so the pump never pulses during start-up.
func NewRealActuator(pins Pins, polarity Polarity) (*RealActuator, error) {
	chip, err := gpiocdev.NewChip("gpiochip0", gpiocdev.WithConsumer(consumer))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	a := &RealActuator{chip: chip, polarity: polarity}
	initial := Levels(logic.IdleCommand(), polarity)
	offsets := [4]int{pins.Relay, pins.Buzzer, pins.Green, pins.Red}
	names := [4]string{"relay", "buzzer", "green", "red"}

	for i, offset := range offsets {
		line, err := chip.RequestLine(offset, gpiocdev.AsOutput(initial[i]))
		if err != nil {
			a.release()
			return nil, fmt.Errorf("request %s pin %d: %w", names[i], offset, err)
		}
		a.lines[i] = line
	}
	return a, nil
}

// Apply writes every output level.
func (a *RealActuator) Apply(cmd logic.Command) error {
	levels := Levels(cmd, a.polarity)
	var errs []error
	for i, line := range a.lines {
		if err := line.SetValue(levels[i]); err != nil {
			errs = append(errs, fmt.Errorf("set line %d: %w", line.Offset(), err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("apply errors: %v", errs)
	}
	return nil
}

// Close drives the idle state, then releases all lines and the chip.
func (a *RealActuator) Close() error {
	var errs []error
	if err := a.Apply(logic.IdleCommand()); err != nil {
		errs = append(errs, err)
	}
	if err := a.release(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

func (a *RealActuator) release() error {
	var errs []error
	for i, line := range a.lines {
		if line == nil {
			continue
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close line %d: %w", line.Offset(), err))
		}
		a.lines[i] = nil
	}
	if a.chip != nil {
		if err := a.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		a.chip = nil
	}
	if len(errs) > 0 {
		return fmt.Errorf("release errors: %v", errs)
	}
	return nil
}
