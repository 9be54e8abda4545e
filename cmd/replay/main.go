// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package main

import (
	"flag"
	"log"

	"github.com/KiranM189/Capstone/internal/app"
	"github.com/KiranM189/Capstone/internal/config"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (optional, enables MQTT republish)")
	csvPath := flag.String("csv", "", "exported capture CSV to replay")
	dbPath := flag.String("db", "", "recording database to replay from")
	capture := flag.String("capture", "", "capture id to replay (default: latest in the database)")
	fast := flag.Bool("fast", false, "ignore recorded pacing and replay as fast as possible")
	flag.Parse()

	if *configPath != "" {
		if err := config.InitGlobal(*configPath); err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	} else {
		config.InitGlobalDefault()
	}

	err := app.RunReplay(app.ReplayConfig{
		CSVPath: *csvPath,
		DBPath:  *dbPath,
		Capture: *capture,
		Fast:    *fast,
	})
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
