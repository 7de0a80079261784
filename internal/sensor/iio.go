package sensor

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sweeney/greenhouse-controller/internal/logic"
)

// Default IIO layout: DHT22 via the dht11 overlay, soil and LDR on an
// MCP3208 (12-bit) ADC.
const (
	DefaultClimateDevice = "/sys/bus/iio/devices/iio:device0"
	DefaultADCDevice     = "/sys/bus/iio/devices/iio:device1"
	DefaultSoilChannel   = 0
	DefaultLightChannel  = 1
)

// IIOConfig locates the sensor attributes in sysfs.
type IIOConfig struct {
	ClimateDevice string // directory of the temperature/humidity device
	ADCDevice     string // directory of the ADC
	SoilChannel   int
	LightChannel  int
}

// IIOReader reads sensors through the Linux industrial I/O subsystem.
type IIOReader struct {
	cfg IIOConfig
}

// NewIIOReader checks that the configured devices exist.
func NewIIOReader(cfg IIOConfig) (*IIOReader, error) {
	for _, dir := range []string{cfg.ClimateDevice, cfg.ADCDevice} {
		if _, err := os.Stat(dir); err != nil {
			return nil, fmt.Errorf("iio device: %w", err)
		}
	}
	return &IIOReader{cfg: cfg}, nil
}

// Read samples all four sensors. The dht11 driver fails reads with EIO or
// ETIMEDOUT when the sensor does not answer; that marks the snapshot invalid.
func (r *IIOReader) Read() (logic.SensorSnapshot, error) {
	var snap logic.SensorSnapshot

	soil, err := readInt(filepath.Join(r.cfg.ADCDevice, fmt.Sprintf("in_voltage%d_raw", r.cfg.SoilChannel)))
	if err != nil {
		return snap, fmt.Errorf("read soil: %w", err)
	}
	light, err := readInt(filepath.Join(r.cfg.ADCDevice, fmt.Sprintf("in_voltage%d_raw", r.cfg.LightChannel)))
	if err != nil {
		return snap, fmt.Errorf("read light: %w", err)
	}
	snap.SoilRaw = soil
	snap.LightRaw = light

	milliC, errT := readInt(filepath.Join(r.cfg.ClimateDevice, "in_temp_input"))
	milliPct, errH := readInt(filepath.Join(r.cfg.ClimateDevice, "in_humidityrelative_input"))
	if errT == nil {
		snap.TemperatureC = float64(milliC) / 1000
	}
	if errH == nil {
		snap.HumidityPct = float64(milliPct) / 1000
	}
	snap.Valid = errT == nil && errH == nil

	return snap, nil
}

// Close is a no-op; attributes are opened per read.
func (r *IIOReader) Close() error {
	return nil
}

func readInt(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}
	return v, nil
}
