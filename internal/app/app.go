package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"doorcam/internal/commands"
	"doorcam/internal/config"
	"doorcam/internal/logger"
	"doorcam/internal/models"
	"doorcam/internal/routes"
	"doorcam/internal/services/blynk"
	"doorcam/internal/services/camera"
	"doorcam/internal/services/capture"
	"doorcam/internal/services/display"
	"doorcam/internal/services/motion"
	"doorcam/internal/services/publisher"
	"doorcam/internal/services/storage"
	"doorcam/internal/services/tasks"
	"doorcam/internal/services/websocket"

	"gocv.io/x/gocv"
)

const (
	windowTitle      = "Smart Door Camera"
	testNotification = "Test notification from Smart Door Camera"
)

// errQuit ends the main loop without reporting a failure.
var errQuit = errors.New("quit requested")

type App struct {
	config     *config.Config
	logger     *logger.Logger
	camera     *camera.Source
	detector   *motion.Detector
	store      *storage.PhotoStore
	publisher  *publisher.Chain
	dispatcher *tasks.Dispatcher
	controller *capture.Controller
	hub        *websocket.HubService
	window     *display.Window
	server     *http.Server
}

func NewApp() (*App, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.New(cfg.LogDirectory)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewPhotoStore(cfg.PhotosDirectory, log)
	if err != nil {
		log.Close()
		return nil, err
	}

	dispatcher := tasks.NewDispatcher(cfg.Tasks, log)
	chain := publisher.New(cfg.Upload, log)
	controller := capture.NewController(cfg, store, chain, blynk.NewClient(cfg.Blynk, log), dispatcher, log)

	src, err := camera.Open(cfg.Camera, log)
	if err != nil {
		dispatcher.Close()
		log.Close()
		return nil, err
	}

	a := &App{
		config:     cfg,
		logger:     log,
		camera:     src,
		detector:   motion.NewDetector(cfg.Motion, log),
		store:      store,
		publisher:  chain,
		dispatcher: dispatcher,
		controller: controller,
		hub:        websocket.NewHubService(log),
	}
	if cfg.ShowWindow {
		a.window = display.NewWindow(windowTitle)
	}
	if cfg.Port > 0 {
		a.server = &http.Server{
			Addr: fmt.Sprintf(":%d", cfg.Port),
			Handler: routes.SetupRoutes(routes.Deps{
				Status:      controller,
				Camera:      src.Name(),
				Store:       store,
				Hub:         a.hub,
				Logger:      log,
				AccessToken: cfg.AccessToken,
			}),
			ReadHeaderTimeout: 10 * time.Second,
		}
	}
	return a, nil
}

// Run drives the camera until a quit command, a signal or a camera failure.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.printBanner()

	go a.hub.Run(ctx)
	if a.server != nil {
		go func() {
			if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("HTTP server failed: %v", err)
			}
		}()
	}

	err := a.loop(ctx)
	a.shutdown()
	if errors.Is(err, errQuit) {
		return nil
	}
	return err
}

func (a *App) loop(ctx context.Context) error {
	frame := gocv.NewMat()
	defer frame.Close()

	a.logger.Info("[INFO] Camera started. Press 'q' to quit, 'p' to take photo")
	for {
		select {
		case <-ctx.Done():
			a.logger.Info("[INFO] Interrupted")
			return nil
		default:
		}

		if err := a.camera.ReadFrame(&frame); err != nil {
			a.logger.Error("[ERROR] Failed to read frame: %v", err)
			return err
		}
		if err := a.tick(frame, time.Now()); err != nil {
			return err
		}
	}
}

// tick runs one frame through detection, the controller, the overlay and the
// command sources.
func (a *App) tick(frame gocv.Mat, now time.Time) error {
	result, err := a.detector.Detect(frame)
	if err != nil {
		a.logger.Warning("Motion detection skipped: %v", err)
		if errors.Is(err, motion.ErrFrameSizeMismatch) {
			a.detector.Reset()
		}
		return a.handleCommands(frame, now, -1)
	}
	defer result.Annotated.Close()

	var event *models.MotionEvent
	if result.Motion {
		event = &models.MotionEvent{Timestamp: now, Frame: frame, Regions: result.Regions}
	}
	a.controller.OnFrame(event, now)

	snap := a.controller.Snapshot()
	display.Overlay{Motion: result.Motion, PhotosTaken: snap.PhotosTaken, Now: now}.Draw(&result.Annotated)

	key := a.window.Show(result.Annotated)
	a.broadcast(result.Annotated, result.Motion, snap.PhotosTaken)

	return a.handleCommands(frame, now, key)
}

func (a *App) broadcast(frame gocv.Mat, motion bool, photos int64) {
	if a.hub.GetClientCount() == 0 {
		return
	}
	buf, err := gocv.IMEncode(".jpg", frame)
	if err != nil {
		a.logger.Warning("[VIEW] Failed to encode frame: %v", err)
		return
	}
	defer buf.Close()
	a.hub.BroadcastFrame(buf.GetBytes(), motion, photos)
}

// handleCommands applies the window key and any pending live-view commands.
func (a *App) handleCommands(frame gocv.Mat, now time.Time, key int) error {
	if err := a.execute(commands.FromKey(key), frame, now); err != nil {
		return err
	}
	for {
		select {
		case cmd := <-a.hub.Commands():
			if err := a.execute(cmd, frame, now); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (a *App) execute(cmd commands.Command, frame gocv.Mat, now time.Time) error {
	switch cmd {
	case commands.Quit:
		a.logger.Info("[INFO] Quit requested")
		return errQuit
	case commands.CapturePhoto:
		a.controller.ManualCapture(frame, now)
	case commands.TestNotification:
		a.logger.Info("[TEST] Sending test notification...")
		a.controller.SendNotification(testNotification)
	case commands.Unlock:
		a.logger.Info("[COMMAND] Unlocking door...")
		a.controller.SetLock(true)
	case commands.Lock:
		a.logger.Info("[COMMAND] Locking door...")
		a.controller.SetLock(false)
	}
	return nil
}

// shutdown releases the camera and window and stops task intake. In-flight
// uploads are not waited for.
func (a *App) shutdown() {
	a.dispatcher.Close()

	if a.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		a.server.Shutdown(ctx)
		cancel()
	}

	a.camera.Close()
	a.window.Close()
	a.detector.Close()

	a.logger.Info("[INFO] Camera stopped. Photos taken: %d", a.controller.Snapshot().PhotosTaken)
	a.logger.Close()
}

func (a *App) printBanner() {
	fmt.Printf("\n%s\n", "==================================================")
	fmt.Printf("   SMART DOOR CAMERA SYSTEM\n")
	fmt.Printf("%s\n\n", "==================================================")

	if a.config.Blynk.AuthToken == "" || a.config.Blynk.AuthToken == "YOUR_AUTH_TOKEN" {
		a.logger.Warning("⚠️  Set BLYNK_AUTH_TOKEN (Blynk Console > Device > Device Info)")
	}
	if a.publisher.Configured() {
		a.logger.Info("✅ Image hosting configured - photos will display in Blynk")
	} else {
		a.logger.Info("ℹ️  No image hosting configured. Photos saved locally in %s", a.store.Dir())
	}

	fmt.Printf("📷 Camera: %s\n", a.camera.Name())
	fmt.Printf("📁 Photos: %s\n", a.store.Dir())
	if a.server != nil {
		fmt.Printf("📍 Live view: http://localhost:%d/api/view\n", a.config.Port)
	}
}
