// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/hmd_tracker/internal/app"
	"github.com/relabs-tech/hmd_tracker/internal/config"
)

func main() {
	configPath := flag.String("config", "tracker_config.txt", "path to the configuration file")
	flag.Parse()

	log.Println("starting hmd-tracker pose producer (headset → MQTT)")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunPoseProducer(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
