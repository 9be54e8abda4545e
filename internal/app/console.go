package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/KiranM189/Capstone/internal/config"
	"github.com/KiranM189/Capstone/internal/sensor"
	"github.com/KiranM189/Capstone/internal/session"
)

// RunConsole subscribes to the gateway's MQTT topics and renders them as
// terminal rows: the live pose table, the stats heartbeat, and completed
// calibration references.
func RunConsole() error {
	cfg := config.Get()
	if cfg.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is not configured")
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientID + "-console")

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	// Subscribe to pose
	poseToken := client.Subscribe(cfg.TopicPose, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var doc PoseDocument
		if err := json.Unmarshal(msg.Payload(), &doc); err != nil {
			log.Printf("console: pose unmarshal error: %v", err)
			return
		}

		fmt.Printf("[POSE] %s  state=%s  joints=%d\n",
			doc.Time.Format("15:04:05.000"), doc.State, len(doc.Pose))
		for _, label := range sensor.KnownLabels {
			q, ok := doc.Pose[label]
			if !ok {
				continue
			}
			fmt.Printf("  %-4s w=%+.4f x=%+.4f y=%+.4f z=%+.4f\n",
				label, q.W, q.X, q.Y, q.Z)
		}
	})
	poseToken.Wait()
	if poseToken.Error() != nil {
		return poseToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicPose)

	// Subscribe to stats
	statsToken := client.Subscribe(cfg.TopicStats, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var st session.Stats
		if err := json.Unmarshal(msg.Payload(), &st); err != nil {
			log.Printf("console: stats unmarshal error: %v", err)
			return
		}

		fmt.Printf("[STAT] state=%-11s labels=%-2d zero_norm=%d\n",
			st.State, len(st.Labels), st.ZeroNorm)
		for _, label := range sensor.KnownLabels {
			ls, ok := st.Labels[label]
			if !ok {
				continue
			}
			fmt.Printf("  %-4s samples=%-7d gaps=%-5d last_seq=%d\n",
				label, ls.Samples, ls.Gaps, ls.LastSeq)
		}
	})
	statsToken.Wait()
	if statsToken.Error() != nil {
		return statsToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicStats)

	// Subscribe to calibration references
	refToken := client.Subscribe(cfg.TopicReference, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var ref session.Reference
		if err := json.Unmarshal(msg.Payload(), &ref); err != nil {
			log.Printf("console: reference unmarshal error: %v", err)
			return
		}

		fmt.Printf("[REF ] completed=%s window=%dms labels=%d\n",
			ref.CompletedAt.Format("15:04:05"), ref.WindowMS, len(ref.Labels))
		for _, label := range sensor.KnownLabels {
			lr, ok := ref.Labels[label]
			if !ok {
				continue
			}
			fmt.Printf("  %-4s samples=%-5d stddev=%.5f confidence=%5.1f\n",
				label, lr.Samples, lr.StdDev, lr.Confidence)
		}
	})
	refToken.Wait()
	if refToken.Error() != nil {
		return refToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicReference)

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}
