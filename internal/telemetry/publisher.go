// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package telemetry publishes the pipeline's per-cycle Status over MQTT.
package telemetry

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/truckcore/internal/config"
	"github.com/relabs-tech/truckcore/internal/pipeline"
)

// Publisher owns the MQTT client and the status topic.
type Publisher struct {
	client mqtt.Client
	topic  string
}

// NewPublisher connects to the broker named in cfg and returns a
// Publisher ready to publish Status records.
func NewPublisher(cfg config.MQTTParams) (*Publisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetConnectTimeout(5 * time.Second)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("telemetry: MQTT connect: %w", token.Error())
	}
	log.Printf("telemetry: connected to MQTT broker at %s", cfg.Broker)

	return &Publisher{client: client, topic: cfg.StatusTopic}, nil
}

// Publish marshals status as JSON and publishes it at QoS 0 (status is
// a perishable snapshot; a dropped sample is superseded by the next
// cycle, so a retry/QoS-1 round trip would only add latency).
func (p *Publisher) Publish(status pipeline.Status) error {
	payload, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("telemetry: marshal status: %w", err)
	}
	token := p.client.Publish(p.topic, 0, false, payload)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("telemetry: publish: %w", token.Error())
	}
	return nil
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	p.client.Disconnect(250)
}
