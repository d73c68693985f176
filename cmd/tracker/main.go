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
	mock := flag.Bool("mock", false, "stream synthetic poses instead of opening a headset")
	flag.Parse()

	if *mock {
		log.Println("starting hmd-tracker console streamer (mock)")
		if err := app.RunMockConsole(); err != nil {
			log.Fatalf("fatal: %v", err)
		}
		return
	}

	log.Println("starting hmd-tracker console streamer")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunTracker(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
