package app

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"sync/atomic"
	"time"

	"nescore/internal/audio"
	"nescore/internal/bus"
	"nescore/internal/cartridge"
	"nescore/internal/graphics"
	"nescore/internal/ppu"
)

// Application represents the main NES emulator application
type Application struct {
	config *Config

	// Presentation
	graphicsBackend graphics.Backend
	window          graphics.Window
	videoProcessor  *graphics.VideoProcessor

	// Emulation
	machine *bus.Bus
	worker  *Worker
	saves   *SaveManager
	sink    *audio.Fanout

	romPath     string
	headless    bool
	initialized bool
	running     bool
	stopping    atomic.Bool

	// Frame handoff buffers, touched only by the presentation loop
	indices [ppu.FrameSize]uint8
	rgb     graphics.Frame
	seen    uint64
	buttons uint8

	startTime time.Time
}

// ApplicationError represents application-specific errors
type ApplicationError struct {
	Component string
	Operation string
	Err       error
}

func (e *ApplicationError) Error() string {
	return fmt.Sprintf("Application %s error during %s: %v", e.Component, e.Operation, e.Err)
}

func (e *ApplicationError) Unwrap() error {
	return e.Err
}

// NewApplication creates the application from a configuration file. A
// missing file is created with defaults; an unreadable one is ignored.
func NewApplication(configPath string) (*Application, error) {
	config := NewConfig()
	if configPath != "" {
		if err := config.LoadFromFile(configPath); err != nil {
			log.Printf("[APP] could not load config from %s, using defaults: %v", configPath, err)
			config = NewConfig()
		}
	}
	return NewApplicationWithConfig(config)
}

// NewApplicationWithConfig creates the application from a ready configuration
func NewApplicationWithConfig(config *Config) (*Application, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	app := &Application{
		config:   config,
		headless: config.Video.Backend == string(graphics.BackendHeadless),
		saves:    NewSaveManager(config.Paths.SaveData, time.Duration(config.Emulation.SaveInterval)*time.Second),
	}
	app.saves.EnableDebug(config.Debug.EnableLogging)

	if err := app.initializeGraphicsBackend(); err != nil {
		return nil, &ApplicationError{
			Component: "graphics",
			Operation: "backend setup",
			Err:       err,
		}
	}

	app.videoProcessor = graphics.NewVideoProcessor(
		config.Video.Brightness,
		config.Video.Contrast,
		config.Video.Saturation,
	)
	app.initialized = true
	return app, nil
}

// initializeGraphicsBackend creates the configured backend, falling back to
// headless when a window cannot be opened
func (app *Application) initializeGraphicsBackend() error {
	backendType := graphics.BackendType(app.config.Video.Backend)

	var err error
	app.graphicsBackend, err = graphics.CreateBackend(backendType)
	if err != nil {
		return err
	}

	graphicsConfig := graphics.Config{
		WindowTitle:      "nescore",
		WindowWidth:      app.config.Window.Width,
		WindowHeight:     app.config.Window.Height,
		Fullscreen:       app.config.Window.Fullscreen,
		VSync:            app.config.Video.VSync,
		FrameRate:        int(app.config.Emulation.FrameRate),
		Filter:           app.config.Video.Filter,
		ShowFPS:          app.config.Video.ShowFPS,
		PauseOnFocusLoss: app.config.Emulation.PauseOnFocusLoss,
		Keys:             app.config.Input.Player1Keys.Bindings(),
		OutputDir:        app.config.Paths.FrameDumps,
		DumpInterval:     app.config.Video.DumpInterval,
		MaxFrames:        app.config.Video.MaxFrames,
		Headless:         app.headless,
		Debug:            app.config.Debug.EnableLogging,
	}

	err = app.graphicsBackend.Initialize(graphicsConfig)
	if err == nil {
		app.window, err = app.graphicsBackend.CreateWindow(graphicsConfig.WindowTitle, graphicsConfig.WindowWidth, graphicsConfig.WindowHeight)
	}
	if err != nil && backendType == graphics.BackendEbitengine {
		log.Printf("[APP] Ebitengine backend failed (%v), falling back to headless mode", err)
		app.graphicsBackend = graphics.NewHeadlessBackend()
		app.headless = true
		graphicsConfig.Headless = true
		if err := app.graphicsBackend.Initialize(graphicsConfig); err != nil {
			return fmt.Errorf("failed to initialize fallback headless backend: %w", err)
		}
		app.window, err = app.graphicsBackend.CreateWindow(graphicsConfig.WindowTitle, graphicsConfig.WindowWidth, graphicsConfig.WindowHeight)
	}
	if err != nil {
		return fmt.Errorf("failed to create window: %w", err)
	}
	return nil
}

// LoadROM loads a ROM file and builds the machine around it
func (app *Application) LoadROM(romPath string) error {
	if !app.initialized {
		return errors.New("application not initialized")
	}

	cart, err := cartridge.LoadFromFile(romPath)
	if err != nil {
		return &ApplicationError{Component: "cartridge", Operation: "load ROM", Err: err}
	}
	machine, err := bus.NewWithCartridge(cart)
	if err != nil {
		return &ApplicationError{Component: "bus", Operation: "create machine", Err: err}
	}

	app.unloadROM()
	app.machine = machine
	app.romPath = romPath
	machine.EnableDebug(app.config.Debug.EnableLogging)

	if err := app.saves.Bind(machine, cart.HasBattery(), romPath); err != nil {
		// Non-fatal: the game runs without persistence
		log.Printf("[APP] %v", err)
	}

	machine.APU.SetSampleRate(app.config.Audio.SampleRate)
	machine.APU.SetBatchSize(app.config.Audio.BatchSize)
	app.sink = app.openAudio()

	app.worker = NewWorker(machine, app.config.Emulation.FrameRate, app.saves)
	app.worker.EnableDebug(app.config.Debug.EnableLogging)
	app.seen = 0
	app.buttons = 0

	app.window.SetTitle(fmt.Sprintf("nescore - %s", filepath.Base(romPath)))
	log.Printf("[APP] loaded %s (mapper %d, %s)", filepath.Base(romPath), cart.MapperID(), machine.Mapper.Kind())
	return nil
}

// openAudio builds the sink chain for the configured outputs. Devices that
// fail to open are skipped.
func (app *Application) openAudio() *audio.Fanout {
	sink := audio.NewFanout()
	rate := app.config.Audio.SampleRate

	if app.config.Audio.Enabled && !app.headless {
		player, err := audio.NewPlayer(rate, float64(app.config.Audio.Volume))
		if err != nil {
			log.Printf("[APP] audio output unavailable: %v", err)
		} else {
			sink.Add(player)
		}
	}
	if app.config.Audio.RecordPath != "" {
		rec, err := audio.NewRecorder(app.config.Audio.RecordPath, rate)
		if err != nil {
			log.Printf("[APP] audio recording unavailable: %v", err)
		} else {
			sink.Add(rec)
		}
	}
	return sink
}

// Run drives the presentation loop until the window closes. Windowed
// backends run the machine on the worker goroutine; headless runs it in
// lock step with the loop.
func (app *Application) Run() error {
	if !app.initialized {
		return errors.New("application not initialized")
	}
	if app.machine == nil {
		return &ApplicationError{Component: "app", Operation: "run", Err: errors.New("no ROM loaded")}
	}

	app.running = true
	app.startTime = time.Now()
	if !app.headless {
		app.worker.Start()
	}
	if app.config.Debug.EnableLogging {
		log.Printf("[APP] starting with %s backend", app.graphicsBackend.GetName())
	}

	err := app.window.Run(app.update)
	app.worker.Stop()
	app.running = false

	if app.config.Debug.EnableLogging {
		stats := app.worker.Stats()
		elapsed := time.Since(app.startTime).Seconds()
		log.Printf("[APP] %d frames in %.1fs (%.1f fps), %d audio batches dropped",
			stats.Frames, elapsed, float64(stats.Frames)/elapsed, stats.DroppedAudio)
	}
	return err
}

// Stop asks the presentation loop to exit at its next tick. It is safe to
// call from any goroutine.
func (app *Application) Stop() {
	app.stopping.Store(true)
}

// update is called once per presentation tick
func (app *Application) update() error {
	if app.stopping.Load() {
		return app.window.Cleanup()
	}

	events := app.window.PollEvents()
	for _, ev := range events {
		if ev.Type == graphics.InputEventTypeCommand && ev.Pressed {
			app.handleCommand(ev.Command)
		}
	}
	app.buttons = graphics.ButtonState(app.buttons, events)
	app.worker.SetInput(app.buttons)

	if app.headless {
		app.worker.Step()
		if err := app.saves.MaybeSync(time.Now()); err != nil {
			log.Printf("[APP] %v", err)
		}
	}

	app.drainAudio()

	seq, fresh := app.worker.Frame(&app.indices, app.seen)
	if !fresh {
		return nil
	}
	app.seen = seq
	app.videoProcessor.Expand(&app.indices, &app.rgb)
	return app.window.RenderFrame(&app.rgb)
}

func (app *Application) handleCommand(cmd graphics.Command) {
	switch cmd {
	case graphics.CommandPause:
		paused := app.worker.TogglePause()
		log.Printf("[APP] paused: %v", paused)
	case graphics.CommandReset:
		app.worker.RequestReset()
		log.Printf("[APP] reset requested")
	case graphics.CommandScreenshot:
		path, err := app.Screenshot()
		if err != nil {
			log.Printf("[APP] screenshot failed: %v", err)
			return
		}
		log.Printf("[APP] screenshot saved to %s", path)
	}
}

func (app *Application) drainAudio() {
	for {
		select {
		case samples := <-app.worker.Audio():
			if err := app.sink.Write(samples); err != nil {
				log.Printf("[APP] audio write failed: %v", err)
			}
		default:
			return
		}
	}
}

// Screenshot writes the last presented frame as a scaled PNG
func (app *Application) Screenshot() (string, error) {
	prefix := "nescore"
	if app.romPath != "" {
		base := filepath.Base(app.romPath)
		prefix = base[:len(base)-len(filepath.Ext(base))]
	}
	path := graphics.ScreenshotPath(app.config.Paths.Screenshots, prefix, time.Now())
	if err := graphics.SavePNG(path, &app.rgb, app.config.Window.Scale, app.config.Video.Filter); err != nil {
		return "", err
	}
	return path, nil
}

// Worker returns the machine worker, nil before a ROM is loaded
func (app *Application) Worker() *Worker {
	return app.worker
}

// Machine returns the loaded machine, nil before a ROM is loaded
func (app *Application) Machine() *bus.Bus {
	return app.machine
}

// Window returns the presentation window
func (app *Application) Window() graphics.Window {
	return app.window
}

// Config returns the active configuration
func (app *Application) Config() *Config {
	return app.config
}

func (app *Application) unloadROM() {
	if app.machine == nil {
		return
	}
	app.worker.Stop()
	if err := app.sink.Close(); err != nil {
		log.Printf("[APP] closing audio: %v", err)
	}
	if err := app.machine.Close(); err != nil {
		log.Printf("[APP] closing machine: %v", err)
	}
	app.machine = nil
	app.worker = nil
	app.sink = nil
}

// Cleanup stops emulation, flushes saves and releases every resource
func (app *Application) Cleanup() error {
	var errs []error
	app.unloadROM()
	if app.window != nil {
		errs = append(errs, app.window.Cleanup())
	}
	if app.graphicsBackend != nil {
		errs = append(errs, app.graphicsBackend.Cleanup())
	}
	app.initialized = false
	return errors.Join(errs...)
}
