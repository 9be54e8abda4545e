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

	log.Println("starting mocap console (MQTT subscriber)")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunConsole(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
