// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package app

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/KiranM189/Capstone/internal/config"
	"github.com/KiranM189/Capstone/internal/hub"
	"github.com/KiranM189/Capstone/internal/link"
	"github.com/KiranM189/Capstone/internal/record"
	"github.com/KiranM189/Capstone/internal/sensor"
	"github.com/KiranM189/Capstone/internal/session"
	"github.com/KiranM189/Capstone/internal/skeleton"
)

// statsPublishInterval paces the MQTT stats topic; pose documents go out
// per retarget pass, stats are a slow heartbeat.
const statsPublishInterval = time.Second

// RunGateway wires the whole capture pipeline and serves it: sensor
// ingest on /sensor, consumer fan-out on /pose, status on /api/state,
// static files for the rest. Optional pieces (MQTT, recording, serial
// bench link, status display) attach themselves based on config.
func RunGateway() error {
	cfg := config.Get()

	skel := skeleton.Default()
	if cfg.SkeletonPath != "" {
		loaded, err := skeleton.Load(cfg.SkeletonPath)
		if err != nil {
			return err
		}
		skel = loaded
	}
	log.Printf("gateway: rig loaded, %d joints, root %s", skel.Len(), skel.Root())

	var pub *Publisher
	if cfg.MQTTBroker != "" {
		p, err := NewPublisher(cfg)
		if err != nil {
			return err
		}
		pub = p
		defer pub.Close()
	} else {
		log.Println("gateway: MQTT_BROKER empty, publishing disabled")
	}

	var rec *record.Recorder
	if cfg.RecordDBPath != "" {
		store, err := record.Open(cfg.RecordDBPath)
		if err != nil {
			return err
		}
		defer store.Close()
		rec = record.NewRecorder(store)
		defer rec.Close()
		log.Printf("gateway: recording corrected samples to %s", cfg.RecordDBPath)
	}

	sess := session.New(session.Config{
		Skeleton:     skel,
		Window:       time.Duration(cfg.CalibrationWindowMS) * time.Millisecond,
		ReferenceDir: cfg.ReferenceDir,
		OnCalibrated: func(ref session.Reference) {
			if pub != nil {
				pub.PublishReference(ref)
			}
		},
	})
	defer sess.Close()

	// Control tokens come from pose consumers and are echoed to every
	// connected sensor. links is assigned below, before the server that
	// can deliver tokens starts.
	var links *link.Server
	h := hub.New(func(token string) {
		log.Printf("gateway: control token %q", token)
		switch token {
		case sensor.ControlCalibrate:
			sess.StartCalibration()
		case sensor.ControlStart:
			log.Printf("gateway: new capture %s", sess.NewCapture())
		}
		links.Broadcast(token)
	})
	go h.Run()
	defer h.Close()

	deliver := func(smp sensor.Sample) {
		up := sess.Deliver(smp)
		if up.Buffered {
			return
		}
		if rec != nil {
			rec.Record(record.NewRow(sess.CaptureID().String(), smp.Label, up.Corrected, smp.Arrival))
		}

		doc := PoseDocument{
			Capture: sess.CaptureID().String(),
			State:   up.State,
			Time:    smp.Arrival,
			Pose:    up.Pose,
		}
		payload, err := json.Marshal(doc)
		if err != nil {
			log.Printf("gateway: pose marshal error: %v", err)
			return
		}
		h.Broadcast(payload)
		if pub != nil {
			pub.PublishPose(payload)
		}
	}
	links = link.NewServer(deliver, nil)

	if cfg.SerialPort != "" {
		bench := link.NewSerialLink(cfg.SerialPort, cfg.SerialBaudRate, deliver, nil)
		go func() {
			if err := bench.Run(); err != nil {
				log.Printf("gateway: serial link stopped: %v", err)
			}
		}()
	}

	if cfg.DisplayEnabled {
		go func() {
			if err := runStatusDisplay(sess, links, h); err != nil {
				log.Printf("gateway: status display disabled: %v", err)
			}
		}()
	}

	if pub != nil {
		go func() {
			ticker := time.NewTicker(statsPublishInterval)
			defer ticker.Stop()
			for range ticker.C {
				pub.PublishStats(sess.Stats())
			}
		}()
	}

	mux := http.NewServeMux()
	mux.Handle("/sensor", links)
	mux.Handle("/pose", h)
	mux.HandleFunc("/api/state", NewStateHandler(sess, links, h))
	mux.Handle("/", http.FileServer(http.Dir(cfg.StaticDir)))

	log.Printf("gateway: listening on %s", cfg.ListenAddr)
	return http.ListenAndServe(cfg.ListenAddr, mux)
}
