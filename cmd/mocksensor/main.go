package main

import (
	"flag"
	"log"
	"strings"
	"time"

	"github.com/KiranM189/Capstone/internal/app"
	"github.com/KiranM189/Capstone/internal/sensor"
)

func main() {
	gateway := flag.String("gateway", "ws://localhost:8887/sensor", "gateway sensor ingest URL")
	labelList := flag.String("labels", "", "comma-separated labels to simulate (default: every physical label)")
	interval := flag.Duration("interval", 30*time.Millisecond, "sample emit interval")
	flag.Parse()

	var labels []sensor.Label
	if *labelList != "" {
		for _, raw := range strings.Split(*labelList, ",") {
			label := sensor.Label(strings.TrimSpace(raw))
			if !label.Known() {
				log.Fatalf("unknown label %q", raw)
			}
			labels = append(labels, label)
		}
	}

	if err := app.RunMockSensor(*gateway, labels, *interval); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
