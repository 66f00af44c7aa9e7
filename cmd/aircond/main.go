// Command aircond samples a DHT11 sensor, runs the thermostat state machine
// and serves the reading to TCP, HTTP/WebSocket, MQTT and serial-console
// consumers.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/QuantumEF/aircond/internal/config"
	"github.com/QuantumEF/aircond/internal/console"
	"github.com/QuantumEF/aircond/internal/control"
	"github.com/QuantumEF/aircond/internal/dht11"
	"github.com/QuantumEF/aircond/internal/feed"
	"github.com/QuantumEF/aircond/internal/linefeed"
	"github.com/QuantumEF/aircond/internal/mqtt"
	"github.com/QuantumEF/aircond/internal/relay"
	"github.com/QuantumEF/aircond/internal/status"
	"github.com/QuantumEF/aircond/internal/web"
)

// warmupSamples is how many good samples are discarded after startup.
// The first DHT11 exchanges after power-up tend to return garbage.
const warmupSamples = 2

func main() {
	configPath := flag.String("config", "", "YAML config file (optional)")
	broker := flag.String("broker", "", "MQTT broker address (empty to disable)")
	sample := flag.Duration("sample", 0, "sampling interval (overrides config)")
	httpAddr := flag.String("http", "", "HTTP status address (overrides config)")
	feedAddr := flag.String("feed", "", "TCP reading feed address (overrides config)")
	consoleDev := flag.String("console", "", "serial console device (overrides config)")
	printReading := flag.Bool("print-reading", false, "Take one reading, print it and exit")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	if *broker != "" {
		cfg.MQTT.Broker = *broker
	}
	if *sample > 0 {
		cfg.SampleMs = int(sample.Milliseconds())
	}
	if *httpAddr != "" {
		cfg.HTTPAddr = *httpAddr
	}
	if *feedAddr != "" {
		cfg.FeedAddr = *feedAddr
	}
	if *consoleDev != "" {
		cfg.Console.Device = *consoleDev
	}

	if err := run(cfg, *printReading); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(cfg config.Config, printReading bool) error {
	sensor, err := dht11.NewRealSensor(cfg.GPIO.Chip, cfg.GPIO.SensorPin)
	if err != nil {
		return fmt.Errorf("init sensor: %w", err)
	}
	defer sensor.Close()

	if printReading {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		raw, err := sensor.Acquire(ctx)
		if err != nil {
			return fmt.Errorf("acquire: %w", err)
		}
		reading, err := dht11.Decode(raw)
		if err != nil {
			return fmt.Errorf("decode: %w", err)
		}
		fmt.Printf("Temp: %d°C, Humidity: %d%%\n", reading.Temperature, reading.Humidity)
		return nil
	}

	relayDrv, err := relay.NewRealDriver(cfg.GPIO.Chip, cfg.GPIO.RelayPin)
	if err != nil {
		return fmt.Errorf("init relay: %w", err)
	}
	defer relayDrv.Close()

	// Distribution layer: readings broadcast, pending-config slot,
	// controller-status slot.
	readings := feed.New[dht11.Reading]()
	configs := feed.NewSlot[control.Config]()
	statuses := feed.NewSlot[control.Status]()

	tracker := status.NewTracker(time.Now(), status.Config{
		SampleMs:    int64(cfg.SampleMs),
		HeartbeatMs: int64(cfg.MQTT.HeartbeatMs),
		Broker:      cfg.MQTT.Broker,
		HTTPAddr:    cfg.HTTPAddr,
		FeedAddr:    cfg.FeedAddr,
		ConsoleDev:  cfg.Console.Device,
	})

	// MQTT is optional: no broker, no publisher.
	var publisher mqtt.Publisher
	var mqttStatus mqtt.ConnectionStatus
	if cfg.MQTT.Broker != "" {
		real, err := mqtt.NewRealPublisher(cfg.MQTT.Broker)
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		defer real.Close()
		publisher = real
		mqttStatus = real
		tracker.SetMQTTConnected(real.IsConnected())

		snap := tracker.Snapshot()
		startup := mqtt.SystemEvent{
			Timestamp:  snap.Now,
			Event:      "STARTUP",
			Retained:   true,
			RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
		}
		if err := real.PublishSystem(startup); err != nil {
			log.Printf("failed to publish startup event: %v", err)
		} else {
			log.Printf("published startup event")
		}
	}

	if cfg.HTTPAddr != "" {
		srv := web.New(cfg.HTTPAddr, tracker, readings)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTPAddr)
	}

	if cfg.FeedAddr != "" {
		lf := linefeed.New(cfg.FeedAddr, readings)
		go func() {
			if err := lf.ListenAndServe(); err != nil {
				log.Printf("tcp feed error: %v", err)
			}
		}()
		defer lf.Close()
		log.Printf("tcp reading feed listening on %s", cfg.FeedAddr)
	}

	if cfg.Console.Device != "" {
		port, err := console.OpenSerial(cfg.Console.Device, cfg.Console.Baud)
		if err != nil {
			return fmt.Errorf("init console: %w", err)
		}
		defer port.Close()

		con := console.New(readings, statuses, configs,
			func() string { return cfg.FeedAddr }, time.Now)
		go func() {
			if err := con.Run(context.Background(), port); err != nil {
				log.Printf("console error: %v", err)
			}
		}()
		log.Printf("serial console on %s @%d", cfg.Console.Device, cfg.Console.Baud)
	}

	log.Printf("started: sample=%v threshold=%d°C runtime=%ds cooldown=%ds broker=%s",
		cfg.SampleInterval(), cfg.Controller.ThresholdC,
		cfg.Controller.MinRuntimeSecs, cfg.Controller.CooldownSecs, cfg.MQTT.Broker)

	ticker := time.NewTicker(cfg.SampleInterval())
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	deps := loopDeps{
		sensor:     sensor,
		relay:      relayDrv,
		publisher:  publisher,
		mqttStatus: mqttStatus,
		tracker:    tracker,
		readings:   readings,
		configs:    configs,
		statuses:   statuses,
		controller: cfg.ControllerConfig(),
		heartbeat:  cfg.HeartbeatInterval(),
	}
	return runLoop(deps, time.Now, ticker.C, sigCh)
}

// loopDeps carries everything runLoop needs; publisher and mqttStatus may
// be nil when MQTT is disabled.
type loopDeps struct {
	sensor     dht11.Sensor
	relay      relay.Driver
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	tracker    *status.Tracker
	readings   *feed.Feed[dht11.Reading]
	configs    *feed.Slot[control.Config]
	statuses   *feed.Slot[control.Status]
	controller control.Config
	heartbeat  time.Duration
}

func runLoop(deps loopDeps, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	startTime := now()
	ctrl := control.New(deps.controller, startTime)

	// The controller starts in Cooldown; make the relay state match and
	// give status consumers (console, web) their first value.
	if err := deps.relay.Set(false); err != nil {
		log.Printf("relay error: %v", err)
	}
	deps.statuses.Put(ctrl.Status())
	deps.tracker.SetControllerQuiet(ctrl.Status())

	warmup := warmupSamples
	lastHeartbeat := startTime

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			// De-energize before anything else.
			if err := deps.relay.Set(false); err != nil {
				log.Printf("relay error on shutdown: %v", err)
			}
			if deps.publisher != nil {
				signalName := "UNKNOWN"
				if s == syscall.SIGINT {
					signalName = "SIGINT"
				} else if s == syscall.SIGTERM {
					signalName = "SIGTERM"
				}
				if deps.mqttStatus != nil {
					deps.tracker.SetMQTTConnected(deps.mqttStatus.IsConnected())
				}
				snap := deps.tracker.SnapshotAt(now())
				event := mqtt.SystemEvent{
					Timestamp:  snap.Now,
					Event:      "SHUTDOWN",
					Reason:     signalName,
					Retained:   true,
					RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", signalName),
				}
				if err := deps.publisher.PublishSystem(event); err != nil {
					log.Printf("failed to publish shutdown event: %v", err)
				} else {
					log.Printf("published shutdown event")
				}
			}
			return nil

		case <-tick:
			t := now()

			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			raw, err := deps.sensor.Acquire(ctx)
			cancel()
			if err != nil {
				log.Printf("sensor acquire error: %v", err)
				deps.tracker.SensorFailed(false)
				continue
			}

			reading, err := dht11.Decode(raw)
			if err != nil {
				// Checksum mismatch: the previous reading stays current,
				// staleness surfaces through the unchanged sequence number.
				log.Printf("sensor decode error: %v", err)
				deps.tracker.SensorFailed(true)
				continue
			}

			if warmup > 0 {
				warmup--
				log.Printf("warm-up sample discarded (%d to go)", warmup)
				continue
			}

			// Reading publication strictly precedes any status update
			// derived from it.
			deps.readings.Publish(reading)
			_, seq, _ := deps.readings.Latest()
			deps.tracker.SetReading(reading, seq, t)

			if deps.publisher != nil {
				if err := deps.publisher.PublishReading(reading, seq, t); err != nil {
					log.Printf("reading publish error: %v", err)
				}
			}

			prev := ctrl.State().Kind
			if ctrl.Update(reading.Temperature, t) {
				next := ctrl.State().Kind
				log.Printf("transition: %s -> %s (temp=%d°C)", prev, next, reading.Temperature)

				if err := deps.relay.Set(ctrl.RelayOn()); err != nil {
					log.Printf("relay error: %v", err)
				}
				deps.statuses.Put(ctrl.Status())
				deps.tracker.SetController(ctrl.Status())

				if deps.publisher != nil {
					event := mqtt.Event{
						Timestamp:   t,
						From:        prev,
						To:          next,
						Temperature: reading.Temperature,
					}
					if err := deps.publisher.PublishEvent(event); err != nil {
						log.Printf("event publish error: %v", err)
					}
				}
			} else {
				deps.tracker.SetControllerQuiet(ctrl.Status())
			}

			// Apply at most one pending config per tick; it governs from
			// the next Update.
			if cfg, ok := deps.configs.TryTake(); ok {
				if err := ctrl.SetConfig(cfg); err != nil {
					log.Printf("config rejected: %v", err)
				} else {
					log.Printf("config applied: threshold=%d°C runtime=%v cooldown=%v",
						cfg.ThresholdTemperature, cfg.MinimumRuntime, cfg.CooldownTime)
					deps.statuses.Put(ctrl.Status())
					deps.tracker.SetControllerQuiet(ctrl.Status())
				}
			}

			if deps.mqttStatus != nil {
				deps.tracker.SetMQTTConnected(deps.mqttStatus.IsConnected())
			}

			if deps.publisher != nil && deps.heartbeat > 0 && t.Sub(lastHeartbeat) >= deps.heartbeat {
				lastHeartbeat = t
				snap := deps.tracker.SnapshotAt(t)
				log.Printf("heartbeat: uptime=%v samples=%d checksum_errors=%d no_response=%d transitions=%d",
					snap.Uptime().Truncate(time.Second), snap.Counts.Samples,
					snap.Counts.ChecksumErrors, snap.Counts.NoResponse, snap.Counts.Transitions)

				hb := mqtt.SystemEvent{
					Timestamp:  t,
					Event:      "HEARTBEAT",
					RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
				}
				if err := deps.publisher.PublishSystem(hb); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}
		}
	}
}
