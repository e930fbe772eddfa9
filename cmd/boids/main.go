package main

import (
	"context"
	"flag"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/richard-sim/proto-boids/pkg/flock"
	"github.com/richard-sim/proto-boids/pkg/simulation"
	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/log"
)

const (
	screenWidth  = 800
	screenHeight = 800
)

func main() {
	configFile := flag.String("config", "", "flock config file (.json or .toml); defaults when empty")
	schemaFile := flag.String("schema", "", "JSON schema for the config file; embedded schema when empty")
	debug := flag.Bool("debug", false, "log every leadership change")
	flag.Parse()

	level := log.InfoLevel
	if *debug {
		level = log.DebugLevel
	}
	logger := log.New(level, os.Stdout)

	cfg := flock.DefaultConfig()
	if *configFile != "" {
		var err error
		cfg, err = flock.LoadConfig(*configFile, *schemaFile)
		if err != nil {
			logger.Fatalf("Error loading config: %v", err)
		}
		logger.Infof("Loaded config from %s", *configFile)
	}

	sim, err := flock.New(cfg)
	if err != nil {
		logger.Fatalf("Error creating flock: %v", err)
	}

	ctx := context.Background()
	system, err := actor.NewActorSystem("BoidsSystem", actor.WithLogger(logger))
	if err != nil {
		logger.Fatalf("Error creating actor system: %v", err)
	}
	if err := system.Start(ctx); err != nil {
		logger.Fatalf("Error starting actor system: %v", err)
	}
	defer func() { _ = system.Stop(ctx) }()

	game, err := simulation.NewGame(ctx, system, sim, screenWidth, screenHeight)
	if err != nil {
		logger.Fatalf("Error creating viewer: %v", err)
	}

	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("Boids (top view, XZ plane)")
	if err := ebiten.RunGame(game); err != nil {
		logger.Errorf("Viewer stopped: %v", err)
		os.Exit(1)
	}
}
