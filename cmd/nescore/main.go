// Package main implements the nescore NES emulator executable.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"nescore/internal/app"
	"nescore/internal/statsview"
	"nescore/internal/version"
)

func main() {
	var (
		romFile      = flag.String("rom", "", "Path to NES ROM file")
		configFile   = flag.String("config", "", "Path to configuration file")
		backend      = flag.String("backend", "", "Video backend: ebitengine, headless or terminal")
		nogui        = flag.Bool("nogui", false, "Run without a window (same as -backend headless)")
		scale        = flag.Int("scale", 0, "Window and screenshot scale")
		filter       = flag.String("filter", "", "Scaling filter: nearest, linear or cubic")
		fullscreen   = flag.Bool("fullscreen", false, "Start fullscreen")
		frames       = flag.Int("frames", 0, "Headless: stop after N frames")
		dumpInterval = flag.Int("dump-interval", 0, "Headless: write every Nth frame as PNG")
		record       = flag.String("record", "", "Record audio to a WAV file")
		mute         = flag.Bool("mute", false, "Disable audio output")
		debug        = flag.Bool("debug", false, "Enable debug logging")
		stats        = flag.Bool("statsview", false, "Serve runtime statistics (needs -tags statsview)")
		showVersion  = flag.Bool("version", false, "Show version information")
	)
	flag.Usage = printUsage
	flag.Parse()

	if *showVersion {
		version.Get().Fprint(os.Stdout, "nescore")
		return
	}
	if *romFile == "" && flag.NArg() > 0 {
		*romFile = flag.Arg(0)
	}
	if *romFile == "" {
		printUsage()
		os.Exit(2)
	}

	configPath := *configFile
	if configPath == "" {
		configPath = app.GetDefaultConfigPath()
	}
	config := app.NewConfig()
	if err := config.LoadFromFile(configPath); err != nil {
		log.Printf("[MAIN] could not load config from %s, using defaults: %v", configPath, err)
		config = app.NewConfig()
	}

	// Flags override the file
	if *backend != "" {
		config.Video.Backend = *backend
	}
	if *nogui {
		config.Video.Backend = "headless"
	}
	if *scale > 0 {
		config.Window.Scale = *scale
		config.Window.Width = 256 * *scale
		config.Window.Height = 240 * *scale
	}
	if *filter != "" {
		config.Video.Filter = *filter
	}
	if *fullscreen {
		config.Window.Fullscreen = true
	}
	if *frames > 0 {
		config.Video.MaxFrames = *frames
	}
	if *dumpInterval > 0 {
		config.Video.DumpInterval = *dumpInterval
	}
	if *record != "" {
		config.Audio.RecordPath = *record
	}
	if *mute {
		config.Audio.Enabled = false
	}
	if *debug {
		config.Debug.EnableLogging = true
	}
	if *stats {
		config.Debug.StatsView = true
	}

	if config.Debug.StatsView {
		stop := statsview.Launch(os.Stdout, statsview.DefaultAddress)
		defer stop()
	}

	application, err := app.NewApplicationWithConfig(config)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}
	defer func() {
		if err := application.Cleanup(); err != nil {
			log.Printf("Application cleanup error: %v", err)
		}
	}()

	if err := application.LoadROM(*romFile); err != nil {
		log.Printf("Failed to load ROM: %v", err)
		return
	}

	setupGracefulShutdown(application)

	if err := application.Run(); err != nil {
		log.Printf("Emulator stopped with error: %v", err)
		return
	}

	s := application.Worker().Stats()
	fmt.Printf("%d frames, %d cycles\n", s.Frames, s.Cycles)
}

// setupGracefulShutdown stops the presentation loop on SIGINT/SIGTERM so the
// deferred cleanup can flush save files
func setupGracefulShutdown(application *app.Application) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("[MAIN] interrupt received, shutting down")
		application.Stop()
	}()
}

func printUsage() {
	out := flag.CommandLine.Output()
	fmt.Fprintln(out, "nescore - cycle-accurate NES emulator")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "USAGE:")
	fmt.Fprintln(out, "  nescore [options] -rom <file>")
	fmt.Fprintln(out, "  nescore [options] <file>")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "OPTIONS:")
	flag.PrintDefaults()
	fmt.Fprintln(out)
	fmt.Fprintln(out, "CONTROLS (default):")
	fmt.Fprintln(out, "  W/A/S/D   D-Pad")
	fmt.Fprintln(out, "  J / K     A / B")
	fmt.Fprintln(out, "  Enter     Start")
	fmt.Fprintln(out, "  Space     Select")
	fmt.Fprintln(out, "  P         Pause")
	fmt.Fprintln(out, "  F1        Reset")
	fmt.Fprintln(out, "  F12       Screenshot")
	fmt.Fprintln(out, "  Escape    Quit")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "  Terminal backend: q quits, p pauses, r resets")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Config file: %s\n", app.GetDefaultConfigPath())
}
