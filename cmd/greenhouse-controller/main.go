// Command greenhouse-controller samples greenhouse sensors and drives the
// irrigation pump, buzzer and status LEDs, reporting each cycle over MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sweeney/greenhouse-controller/internal/gpio"
	"github.com/sweeney/greenhouse-controller/internal/history"
	"github.com/sweeney/greenhouse-controller/internal/logic"
	"github.com/sweeney/greenhouse-controller/internal/metrics"
	"github.com/sweeney/greenhouse-controller/internal/mqtt"
	"github.com/sweeney/greenhouse-controller/internal/sensor"
	"github.com/sweeney/greenhouse-controller/internal/status"
	"github.com/sweeney/greenhouse-controller/internal/web"
)

type options struct {
	logic      logic.Config
	interval   time.Duration
	retryDelay time.Duration
	heartbeat  time.Duration
	pins       gpio.Pins
	polarity   gpio.Polarity
	iio        sensor.IIOConfig
	broker     string
	clientID   string
	httpAddr   string
	influx     history.InfluxConfig
	printState bool
}

func main() {
	opts := parseFlags(flag.CommandLine, os.Args[1:])
	if err := run(opts); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func parseFlags(fs *flag.FlagSet, args []string) options {
	o := options{
		logic: logic.DefaultConfig(),
		pins:  gpio.DefaultPins(),
	}
	c := &o.logic

	fs.DurationVar(&o.interval, "interval", 3*time.Second, "Control cycle interval")
	fs.DurationVar(&o.retryDelay, "retry-delay", 2*time.Second, "Delay before the next cycle after a sensor failure")
	fs.DurationVar(&o.heartbeat, "heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")

	fs.StringVar(&c.Model, "model", c.Model, "Demand model: additive or evaporation")
	fs.StringVar(&c.Policy, "policy", c.Policy, "Activation policy: hysteresis or burst")

	fs.IntVar(&c.Calibration.SoilWetRaw, "soil-wet", c.Calibration.SoilWetRaw, "Soil ADC reading of saturated soil")
	fs.IntVar(&c.Calibration.SoilDryRaw, "soil-dry", c.Calibration.SoilDryRaw, "Soil ADC reading of dry soil")
	fs.Float64Var(&c.Calibration.TempLowC, "temp-low", c.Calibration.TempLowC, "Temperature (°C) with no watering demand")
	fs.Float64Var(&c.Calibration.TempHighC, "temp-high", c.Calibration.TempHighC, "Temperature (°C) with full watering demand")
	fs.IntVar(&c.Calibration.ADCMax, "adc-max", c.Calibration.ADCMax, "Full-scale ADC reading")

	fs.Float64Var(&c.Additive.Soil, "additive-soil", c.Additive.Soil, "Additive model: soil weight")
	fs.Float64Var(&c.Additive.Temp, "additive-temp", c.Additive.Temp, "Additive model: temperature weight")
	fs.Float64Var(&c.Additive.Light, "additive-light", c.Additive.Light, "Additive model: light weight")
	fs.Float64Var(&c.Additive.Humidity, "additive-humidity", c.Additive.Humidity, "Additive model: humidity weight (subtracted)")
	fs.Float64Var(&c.Evaporation.Soil, "evap-soil", c.Evaporation.Soil, "Evaporation model: soil weight")
	fs.Float64Var(&c.Evaporation.Evaporation, "evap-evaporation", c.Evaporation.Evaporation, "Evaporation model: evaporation weight")
	fs.Float64Var(&c.Evaporation.Light, "evap-light", c.Evaporation.Light, "Evaporation model: light weight")

	fs.Float64Var(&c.Hysteresis.On, "on-threshold", c.Hysteresis.On, "Hysteresis: score above which the pump starts")
	fs.Float64Var(&c.Hysteresis.Off, "off-threshold", c.Hysteresis.Off, "Hysteresis: score below which the pump may stop")
	fs.DurationVar(&c.Hysteresis.MinOn, "min-on", c.Hysteresis.MinOn, "Hysteresis: minimum pump run time")

	fs.DurationVar(&c.Burst.OnDuration, "burst-on", c.Burst.OnDuration, "Burst: pump on duration")
	fs.DurationVar(&c.Burst.OffMax, "burst-off-max", c.Burst.OffMax, "Burst: rest with no evaporative demand")
	fs.DurationVar(&c.Burst.OffMin, "burst-off-min", c.Burst.OffMin, "Burst: rest at full evaporative demand")
	fs.Float64Var(&c.Burst.DryGate, "dry-gate", c.Burst.DryGate, "Burst: soil factor above which watering is allowed")
	fs.Float64Var(&c.Burst.DayThreshold, "day-threshold", c.Burst.DayThreshold, "Burst: light factor above which it is daytime")

	fs.IntVar(&o.pins.Relay, "pin-relay", o.pins.Relay, "BCM pin number for the pump relay")
	fs.IntVar(&o.pins.Buzzer, "pin-buzzer", o.pins.Buzzer, "BCM pin number for the buzzer")
	fs.IntVar(&o.pins.Green, "pin-green", o.pins.Green, "BCM pin number for the green (ok) LED")
	fs.IntVar(&o.pins.Red, "pin-red", o.pins.Red, "BCM pin number for the red (warning) LED")
	fs.BoolVar(&o.polarity.RelayActiveLow, "relay-active-low", true, "Relay module switches on a low level")

	fs.StringVar(&o.iio.ClimateDevice, "iio-climate", sensor.DefaultClimateDevice, "IIO device directory of the temperature/humidity sensor")
	fs.StringVar(&o.iio.ADCDevice, "iio-adc", sensor.DefaultADCDevice, "IIO device directory of the ADC")
	fs.IntVar(&o.iio.SoilChannel, "soil-channel", sensor.DefaultSoilChannel, "ADC channel of the soil probe")
	fs.IntVar(&o.iio.LightChannel, "light-channel", sensor.DefaultLightChannel, "ADC channel of the light sensor")

	fs.StringVar(&o.broker, "broker", "tcp://192.168.1.200:1883", "MQTT broker address (empty to disable)")
	fs.StringVar(&o.clientID, "client-id", "greenhouse-controller", "MQTT client ID")
	fs.StringVar(&o.httpAddr, "http", ":80", "HTTP status address (empty to disable)")

	fs.StringVar(&o.influx.URL, "influx-url", "", "InfluxDB URL (empty to disable history)")
	fs.StringVar(&o.influx.Token, "influx-token", os.Getenv("INFLUX_TOKEN"), "InfluxDB token (default $INFLUX_TOKEN)")
	fs.StringVar(&o.influx.Org, "influx-org", "home", "InfluxDB organisation")
	fs.StringVar(&o.influx.Bucket, "influx-bucket", "greenhouse", "InfluxDB bucket")
	fs.DurationVar(&o.influx.WriteTimeout, "influx-timeout", time.Second, "InfluxDB write timeout")

	fs.BoolVar(&o.printState, "print-state", false, "Print current readings and demand score, then exit")

	fs.Parse(args)
	return o
}

func run(o options) error {
	start := time.Now()
	ctrl, err := logic.NewController(o.logic, start)
	if err != nil {
		return err
	}

	reader, err := sensor.NewIIOReader(o.iio)
	if err != nil {
		return fmt.Errorf("init sensors: %w", err)
	}
	defer reader.Close()

	if o.printState {
		return printState(os.Stdout, reader, o.logic)
	}

	actuator, err := gpio.NewRealActuator(o.pins, o.polarity)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer actuator.Close()

	var publisher mqtt.Publisher = mqtt.NopPublisher{}
	var mqttStatus mqtt.ConnectionStatus = mqtt.NopPublisher{}
	if o.broker != "" {
		p, err := mqtt.NewRealPublisher(o.broker, o.clientID)
		if err != nil {
			// Irrigation must keep running without telemetry.
			log.Printf("mqtt unavailable, continuing without telemetry: %v", err)
		} else {
			publisher, mqttStatus = p, p
		}
	}
	defer publisher.Close()

	var recorder history.Recorder = history.NopRecorder{}
	if o.influx.URL != "" {
		o.influx.Tags = map[string]string{"model": ctrl.ModelName(), "policy": ctrl.PolicyName()}
		r, err := history.NewInfluxRecorder(o.influx)
		if err != nil {
			return fmt.Errorf("init history: %w", err)
		}
		recorder = r
	}
	defer recorder.Close()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	tracker := status.NewTracker(start, status.Config{
		IntervalMs:     o.interval.Milliseconds(),
		RetryDelayMs:   o.retryDelay.Milliseconds(),
		HeartbeatMs:    o.heartbeat.Milliseconds(),
		Model:          ctrl.ModelName(),
		Policy:         ctrl.PolicyName(),
		RelayActiveLow: o.polarity.RelayActiveLow,
		Broker:         o.broker,
		HTTPAddr:       o.httpAddr,
	})
	tracker.SetMQTTConnected(mqttStatus.IsConnected())

	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	}

	if o.httpAddr != "" {
		srv := web.New(o.httpAddr, tracker, reg)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", o.httpAddr)
	}

	log.Printf("started: model=%s policy=%s interval=%v retry=%v relay-active-low=%v broker=%s",
		ctrl.ModelName(), ctrl.PolicyName(), o.interval, o.retryDelay, o.polarity.RelayActiveLow, o.broker)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sinks := loopSinks{
		actuator:   actuator,
		publisher:  publisher,
		mqttStatus: mqttStatus,
		recorder:   recorder,
		metrics:    m,
		tracker:    tracker,
	}
	return runLoop(reader, ctrl, sinks, o.interval, o.retryDelay, o.heartbeat, time.Now, time.After, sigCh)
}

// loopSinks are the collaborators fed by every cycle.
type loopSinks struct {
	actuator   gpio.Actuator
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	recorder   history.Recorder
	metrics    *metrics.Metrics
	tracker    *status.Tracker
}

// runLoop runs one cycle whenever the pending delay from after fires. Cycles
// never overlap: the next delay is only scheduled once a cycle has finished.
func runLoop(reader sensor.Reader, ctrl *logic.Controller, s loopSinks, interval, retryDelay, heartbeat time.Duration, now func() time.Time, after func(time.Duration) <-chan time.Time, sig <-chan os.Signal) error {
	wait := after(0)

	for {
		select {
		case sg := <-sig:
			log.Printf("received %v, shutting down", sg)
			if err := s.actuator.Apply(logic.IdleCommand()); err != nil {
				log.Printf("gpio write error: %v", err)
			}

			signalName := "UNKNOWN"
			if sg == syscall.SIGINT {
				signalName = "SIGINT"
			} else if sg == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			s.tracker.SetMQTTConnected(s.mqttStatus.IsConnected())
			event := mqtt.SystemEvent{
				Timestamp:  now(),
				Event:      "SHUTDOWN",
				Reason:     signalName,
				Retained:   true,
				RawPayload: status.FormatStatusEvent(s.tracker.Snapshot(), "SHUTDOWN", signalName),
			}
			if err := s.publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case <-wait:
			d := runCycle(reader, ctrl, s, now())

			if hb := ctrl.CheckHeartbeat(d.Time, heartbeat); hb != nil {
				log.Printf("heartbeat: uptime=%v cycles=%d sensor_failures=%d pump_starts=%d pump_stops=%d",
					hb.Uptime, hb.Counts.Cycles, hb.Counts.SensorFailures, hb.Counts.PumpStarts, hb.Counts.PumpStops)
				hbEvent := mqtt.SystemEvent{
					Timestamp:  hb.Timestamp,
					Event:      "HEARTBEAT",
					RawPayload: status.FormatStatusEvent(s.tracker.Snapshot(), "HEARTBEAT", ""),
				}
				if err := s.publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}

			next := interval
			if d.Fallback {
				next = retryDelay
			}
			wait = after(next)
		}
	}
}

// runCycle samples, decides, actuates and reports once. t is the only clock
// reading used by the cycle.
func runCycle(reader sensor.Reader, ctrl *logic.Controller, s loopSinks, t time.Time) logic.Decision {
	snap, err := reader.Read()
	if err != nil {
		log.Printf("sensor read error: %v", err)
		snap = logic.SensorSnapshot{Valid: false}
	}

	d := ctrl.Cycle(snap, t)

	// Level-driven: every output is written every cycle.
	if err := s.actuator.Apply(d.Command); err != nil {
		log.Printf("gpio write error: %v", err)
		s.metrics.ReportError("gpio")
	}

	logDecision(d)

	if err := s.publisher.Publish(d); err != nil {
		log.Printf("publish error: %v", err)
		s.metrics.ReportError("mqtt")
	}
	if err := s.recorder.Record(context.Background(), d); err != nil {
		log.Printf("history error: %v", err)
		s.metrics.ReportError("influx")
	}

	s.metrics.Observe(d)
	s.tracker.Update(d, ctrl.Counts())
	s.tracker.SetMQTTConnected(s.mqttStatus.IsConnected())
	return d
}

func logDecision(d logic.Decision) {
	if d.Fallback {
		log.Printf("sensor read failed: pump=OFF (forced) soil=%d light=%d", d.Snapshot.SoilRaw, d.Snapshot.LightRaw)
		return
	}
	s, f := d.Snapshot, d.Factors
	log.Printf("cycle: temp=%.1fC hum=%.1f%% soil=%d light=%d | soil=%.2f temp=%.2f hum=%.2f light=%.2f evap=%.2f | score=%.3f phase=%s pump=%s",
		s.TemperatureC, s.HumidityPct, s.SoilRaw, s.LightRaw,
		f.Soil, f.Temp, f.Humidity, f.Light, f.Evaporation,
		d.Score, d.Phase, stateString(d.Command.Pump))
}

func stateString(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}

// printState takes one reading and writes the snapshot, factors and score.
func printState(w io.Writer, reader sensor.Reader, cfg logic.Config) error {
	snap, err := reader.Read()
	if err != nil {
		return fmt.Errorf("read sensors: %w", err)
	}
	if !snap.Valid {
		fmt.Fprintf(w, "climate:     sensor unavailable\n")
		fmt.Fprintf(w, "soil:        %d\n", snap.SoilRaw)
		fmt.Fprintf(w, "light:       %d\n", snap.LightRaw)
		fmt.Fprintf(w, "score:       n/a (pump held off)\n")
		return nil
	}

	model, err := cfg.DemandModel()
	if err != nil {
		return err
	}
	f := logic.Normalize(cfg.Calibration, snap)

	fmt.Fprintf(w, "temperature: %.1f C\n", snap.TemperatureC)
	fmt.Fprintf(w, "humidity:    %.1f %%\n", snap.HumidityPct)
	fmt.Fprintf(w, "soil:        %d (%.2f)\n", snap.SoilRaw, f.Soil)
	fmt.Fprintf(w, "light:       %d (%.2f)\n", snap.LightRaw, f.Light)
	fmt.Fprintf(w, "evaporation: %.2f\n", f.Evaporation)
	fmt.Fprintf(w, "score:       %.3f (%s)\n", model.Score(f), model.Name())
	return nil
}
