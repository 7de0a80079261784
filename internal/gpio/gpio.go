// Package gpio drives the irrigation actuators with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import "github.com/sweeney/greenhouse-controller/internal/logic"

// Actuator applies actuator commands.
type Actuator interface {
	// Apply writes all four outputs. It is called every cycle whether or
	// not the command changed.
	Apply(cmd logic.Command) error

	// Close drives the outputs to the idle state and releases them.
	Close() error
}

// Default pin definitions (BCM numbering)
const (
	DefaultPinRelay  = 26
	DefaultPinBuzzer = 25
	DefaultPinGreen  = 12
	DefaultPinRed    = 13
)

// Pins maps each actuator to a BCM line offset.
type Pins struct {
	Relay  int
	Buzzer int
	Green  int
	Red    int
}

// DefaultPins returns the default wiring.
func DefaultPins() Pins {
	return Pins{
		Relay:  DefaultPinRelay,
		Buzzer: DefaultPinBuzzer,
		Green:  DefaultPinGreen,
		Red:    DefaultPinRed,
	}
}

// Polarity describes how the relay module is wired. Buzzer and LEDs are
// always active-high.
type Polarity struct {
	RelayActiveLow bool
}

// Level converts a logical on/off into a line value.
func Level(on, activeLow bool) int {
	if on != activeLow {
		return 1
	}
	return 0
}

// Levels returns the line values for cmd in relay, buzzer, green, red order.
func Levels(cmd logic.Command, p Polarity) [4]int {
	return [4]int{
		Level(cmd.Pump, p.RelayActiveLow),
		Level(cmd.Alert, false),
		Level(cmd.IndicatorOK, false),
		Level(cmd.IndicatorWarn, false),
	}
}
