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
	configPath := flag.String("config", "./gateway_config.txt", "path to configuration file")
	flag.Parse()

	log.Println("starting mocap gateway")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunGateway(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
