// Package sensor provides environmental sampling with hardware abstraction.
// The real implementation reads Linux IIO sysfs attributes.
// The fake implementation allows testing without hardware.
package sensor

import "github.com/sweeney/greenhouse-controller/internal/logic"

// Reader produces one snapshot per control cycle.
type Reader interface {
	// Read returns the current readings. A failed temperature or humidity
	// reading is reported as Valid=false, not as an error. An error means
	// the snapshot could not be taken at all.
	Read() (logic.SensorSnapshot, error)

	// Close releases sensor resources.
	Close() error
}
