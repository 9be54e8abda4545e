package app

import (
	"log"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"github.com/KiranM189/Capstone/internal/sensor"
)

// RunMockSensor dials the gateway's ingest endpoint once per label and
// streams synthetic orientations, one connection per simulated strap.
// Control tokens gate the stream: "stop" halts emission, "start" and
// "calibrate" (re)enable it. Runs until interrupted.
func RunMockSensor(gatewayURL string, labels []sensor.Label, interval time.Duration) error {
	if len(labels) == 0 {
		labels = sensor.PhysicalLabels
	}

	log.Printf("mocksensor: streaming %d labels to %s every %v", len(labels), gatewayURL, interval)
	for _, label := range labels {
		go runMockLabel(gatewayURL, label, interval)
	}

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("mocksensor: shutting down")
	return nil
}

func runMockLabel(url string, label sensor.Label, interval time.Duration) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		log.Printf("mocksensor: %s: dial error: %v", label, err)
		return
	}
	defer conn.Close()
	log.Printf("mocksensor: %s connected", label)

	// Emit by default so a plain gateway shows motion without anyone
	// sending a start token.
	var running atomic.Bool
	running.Store(true)

	go func() {
		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				return
			}
			token := strings.TrimSpace(string(payload))
			switch token {
			case sensor.ControlStart, sensor.ControlCalibrate:
				running.Store(true)
			case sensor.ControlStop:
				running.Store(false)
			default:
				continue
			}
			log.Printf("mocksensor: %s: control %q", label, token)
		}
	}()

	src := sensor.NewMockSource(label)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		if !running.Load() {
			continue
		}
		msg, err := src.Next()
		if err != nil {
			log.Printf("mocksensor: %s: source error: %v", label, err)
			return
		}
		if err := conn.WriteJSON(msg); err != nil {
			log.Printf("mocksensor: %s: write error: %v", label, err)
			return
		}
	}
}
