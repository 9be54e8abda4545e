// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package app

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/KiranM189/Capstone/internal/config"
	"github.com/KiranM189/Capstone/internal/monitoring"
	"github.com/KiranM189/Capstone/internal/quat"
	"github.com/KiranM189/Capstone/internal/sensor"
	"github.com/KiranM189/Capstone/internal/session"
)

// PoseDocument is the frame consumers receive, over the hub and on the
// pose topic: the capture it belongs to, the session state, and the full
// local rotation table after one retarget pass.
type PoseDocument struct {
	Capture string                           `json:"capture"`
	State   session.State                    `json:"state"`
	Time    time.Time                        `json:"time"`
	Pose    map[sensor.Label]quat.Quaternion `json:"pose"`
}

const publisherQueueSize = 256

type publishJob struct {
	topic   string
	payload []byte
}

// Publisher pushes pose, stats and reference documents to the MQTT
// broker on its own goroutine, so a slow broker never stalls sample
// delivery. Frames that cannot be queued are dropped and counted.
type Publisher struct {
	client mqtt.Client

	topicPose      string
	topicStats     string
	topicReference string

	queue     chan publishJob
	wg        sync.WaitGroup
	closeOnce sync.Once

	dropped monitoring.Counter
}

// NewPublisher connects to the configured broker. Callers check
// cfg.MQTTBroker themselves; an empty broker means no publisher.
func NewPublisher(cfg *config.Config) (*Publisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	log.Printf("publisher: connected to MQTT broker at %s", cfg.MQTTBroker)

	p := &Publisher{
		client:         client,
		topicPose:      cfg.TopicPose,
		topicStats:     cfg.TopicStats,
		topicReference: cfg.TopicReference,
		queue:          make(chan publishJob, publisherQueueSize),
	}
	p.wg.Add(1)
	go p.loop()
	return p, nil
}

func (p *Publisher) loop() {
	defer p.wg.Done()
	for job := range p.queue {
		if token := p.client.Publish(job.topic, 0, true, job.payload); token.Wait() && token.Error() != nil {
			log.Printf("publisher: MQTT publish error (%s): %v", job.topic, token.Error())
		}
	}
}

func (p *Publisher) enqueue(topic string, payload []byte) {
	select {
	case p.queue <- publishJob{topic: topic, payload: payload}:
	default:
		p.dropped.Inc()
	}
}

// PublishPose queues one already-marshaled pose document. The gateway
// shares the bytes with the consumer hub.
func (p *Publisher) PublishPose(payload []byte) {
	p.enqueue(p.topicPose, payload)
}

// PublishStats queues a session stats snapshot.
func (p *Publisher) PublishStats(st session.Stats) {
	payload, err := json.Marshal(st)
	if err != nil {
		log.Printf("publisher: stats marshal error: %v", err)
		return
	}
	p.enqueue(p.topicStats, payload)
}

// PublishReference queues a completed calibration reference.
func (p *Publisher) PublishReference(ref session.Reference) {
	payload, err := json.Marshal(ref)
	if err != nil {
		log.Printf("publisher: reference marshal error: %v", err)
		return
	}
	p.enqueue(p.topicReference, payload)
}

// Dropped returns how many documents were discarded because the queue
// was full.
func (p *Publisher) Dropped() uint64 { return p.dropped.Value() }

// Close flushes the queue and disconnects from the broker.
func (p *Publisher) Close() {
	p.closeOnce.Do(func() { close(p.queue) })
	p.wg.Wait()
	p.client.Disconnect(250)
}
