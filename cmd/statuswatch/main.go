// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Command statuswatch subscribes to the vehicle's MQTT status topic and
// prints each cycle's headline fields.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/truckcore/internal/config"
	"github.com/relabs-tech/truckcore/internal/pipeline"
)

func main() {
	profilesDir := os.Getenv("CAR_PROFILE_DIR")
	if profilesDir == "" {
		profilesDir = "profiles"
	}
	if err := config.InitGlobal(profilesDir); err != nil {
		log.Fatalf("statuswatch: loading car profile: %v", err)
	}
	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTT.Broker).
		SetClientID(cfg.MQTT.ClientID + "-statuswatch")

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalf("statuswatch: MQTT connect: %v", token.Error())
	}
	log.Printf("statuswatch connected to MQTT broker at %s", cfg.MQTT.Broker)

	token := client.Subscribe(cfg.MQTT.StatusTopic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s pipeline.Status
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Printf("statuswatch: payload unmarshal error: %v", err)
			return
		}
		fmt.Printf("seq=%d race=%s dir=%s esc=%s speed=%6.2fkm/h grip=%.2f\n",
			s.SequenceNumber, s.RaceState, s.Direction, s.ESCState, s.FusedSpeedKmh, s.GripMultiplier)
	})
	token.Wait()
	if token.Error() != nil {
		log.Fatalf("statuswatch: subscribe: %v", token.Error())
	}
	log.Printf("statuswatch subscribed to %s", cfg.MQTT.StatusTopic)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("statuswatch shutting down")
	client.Disconnect(250)
}
