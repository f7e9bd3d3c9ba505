// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Command vehicled runs the onboard assistance core: one cooperative
// main-loop goroutine driven by an IMU poll ticker, reading GPS and
// driver input opportunistically each cycle and running the controller
// chain synchronously. The wheel-pulse GPIO callback is the sole
// exception, running on its own goroutine and writing only through
// vehicle.State's mutex-protected pulse counter.
package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/relabs-tech/truckcore/internal/config"
	"github.com/relabs-tech/truckcore/internal/pipeline"
	"github.com/relabs-tech/truckcore/internal/sensors/gpsadapter"
	"github.com/relabs-tech/truckcore/internal/sensors/imuadapter"
	"github.com/relabs-tech/truckcore/internal/sensors/wheeladapter"
	"github.com/relabs-tech/truckcore/internal/telemetry"
	"github.com/relabs-tech/truckcore/internal/transport"
	"github.com/relabs-tech/truckcore/internal/vehicle"

	driverclock "github.com/relabs-tech/truckcore/internal/clock"
)

func main() {
	profilesDir := os.Getenv("CAR_PROFILE_DIR")
	if profilesDir == "" {
		profilesDir = "profiles"
	}
	if err := config.InitGlobal(profilesDir); err != nil {
		log.Fatalf("vehicled: loading car profile: %v", err)
	}
	cfg := config.Get()

	st := vehicle.New()
	pl := pipeline.New(cfg, driverclock.Real{})

	imu, err := imuadapter.New(cfg.IMU)
	if err != nil {
		log.Fatalf("vehicled: imu init: %v", err)
	}

	wheel, err := wheeladapter.Open(cfg.Wheel)
	if err != nil {
		log.Fatalf("vehicled: wheel adapter init: %v", err)
	}
	wheelDone := make(chan struct{})
	go wheel.Run(st, wheelDone)
	defer close(wheelDone)

	gps, err := gpsadapter.Open(cfg.GPS)
	if err != nil {
		log.Printf("vehicled: gps adapter unavailable, continuing without GPS: %v", err)
	} else {
		go func() {
			for {
				if err := gps.ReadFix(st); err != nil {
					log.Printf("vehicled: gps read error: %v", err)
					return
				}
			}
		}()
	}

	publisher, err := telemetry.NewPublisher(cfg.MQTT)
	if err != nil {
		log.Printf("vehicled: telemetry unavailable: %v", err)
	}

	var currentSession *transport.Session
	mux := http.NewServeMux()
	mux.HandleFunc("/driver", func(w http.ResponseWriter, r *http.Request) {
		session, err := transport.Upgrade(w, r)
		if err != nil {
			log.Printf("vehicled: driver upgrade failed: %v", err)
			return
		}
		currentSession = session
		st.DriverConnected = true
	})
	go func() {
		if err := http.ListenAndServe(cfg.Transport.ListenAddr, mux); err != nil {
			log.Fatalf("vehicled: transport listener: %v", err)
		}
	}()

	imuTicker := time.NewTicker(time.Duration(cfg.IMU.PollIntervalMs) * time.Millisecond)
	defer imuTicker.Stop()

	lastCycle := time.Now()
	var lastWheelCount uint64
	var driverInput vehicle.DriverInput

	for now := range imuTicker.C {
		dt := now.Sub(lastCycle)
		lastCycle = now

		if err := imu.Poll(st, dt.Seconds()); err != nil {
			log.Printf("vehicled: imu poll error: %v", err)
		}

		count, lastPulse := st.SnapshotWheelPulse()
		pulses := count - lastWheelCount
		lastWheelCount = count
		if time.Since(lastPulse) < time.Duration(cfg.Wheel.PulseStaleMs)*time.Millisecond {
			st.WheelSpeedKmh = wheel.SpeedFromPulses(pulses, dt, cfg.Wheel.CircumferenceM)
		} else {
			st.WheelSpeedKmh = 0
		}

		if currentSession != nil {
			select {
			case in, ok := <-currentSession.Inputs:
				if !ok {
					st.Reset()
					pl.Reset()
					currentSession = nil
				} else {
					driverInput = in
					st.LastDriverInputAt = in.ReceivedAt
				}
			default:
			}
		}

		if st.DriverConnected && time.Since(st.LastDriverInputAt) > time.Duration(cfg.Vehicle.DisconnectTimeoutMs)*time.Millisecond {
			st.Reset()
			pl.Reset()
			driverInput.Throttle = 0
			driverInput.Steering = 0
		}

		throttle, steering, status := pl.RunCycle(st, driverInput.Throttle, driverInput.Steering, dt, now)
		status.SequenceNumber = driverInput.SequenceNumber

		if currentSession != nil {
			if err := currentSession.Send(driverInput.SequenceNumber, throttle, steering); err != nil {
				log.Printf("vehicled: actuator send error: %v", err)
			}
		}

		if publisher != nil {
			if err := publisher.Publish(status); err != nil {
				log.Printf("vehicled: telemetry publish error: %v", err)
			}
		}
	}
}
