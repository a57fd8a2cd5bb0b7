package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/cjeanneret/TurnGo/internal/config"
	"github.com/cjeanneret/TurnGo/internal/debug"
	"github.com/cjeanneret/TurnGo/internal/hw/camera"
	"github.com/cjeanneret/TurnGo/internal/hw/transport"
	"github.com/cjeanneret/TurnGo/internal/hw/turntable"
	"github.com/cjeanneret/TurnGo/internal/logic/pipeline"
	"github.com/cjeanneret/TurnGo/internal/logic/worker"
	"github.com/cjeanneret/TurnGo/internal/web"
)

func main() {
	cfgPath := flag.String("config", filepath.Join("configs", "default.yaml"), "path to config file")
	webPort := flag.Int("web", 8080, "web server port")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := config.ValidateConfigPath(*cfgPath); err != nil {
		log.Fatalf("invalid config path: %v", err)
	}
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}

	debug.Init(cfg.Defaults.DebugLevel)
	debug.Section("Initialization")
	debug.Value("Config path", *cfgPath)
	debug.Value("Debug level", cfg.Defaults.DebugLevel)

	debug.Step(1, "Creating turntable driver")
	table := turntable.NewRevoTable(turntable.Config{
		Link: transport.Config{
			Port:     cfg.Turntable.Port,
			BaudRate: cfg.Turntable.BaudRate,
		},
		Mock:         cfg.Turntable.Mock,
		RotationPace: cfg.Turntable.RotationPace,
		TiltPace:     cfg.Turntable.TiltPace,
	})
	debug.PrintStruct("Turntable config", cfg.Turntable)

	debug.Step(2, "Creating camera driver")
	camDriver, err := camera.NewDriver(cfg.Camera.Type)
	if err != nil {
		log.Fatalf("init camera driver failed: %v", err)
	}
	debug.Value("Camera type", cfg.Camera.Type)

	debug.Step(3, "Wiring workers and pipelines")
	tableCmds := make(chan worker.TableCommand, 64)
	cameraCmds := make(chan worker.CameraCommand, 64)
	images := make(chan worker.ImageHandle, 64)
	cameraStates := worker.NewBroadcaster[worker.CameraState](0)
	tableStates := worker.NewBroadcaster[worker.TableState](0)

	cameraWorker := worker.NewCameraWorker(camDriver, cameraCmds, cameraStates, images)
	tableCameraSub, unsubTableCamera := cameraStates.Subscribe()
	defer unsubTableCamera()
	tableWorker := worker.NewTurntableWorker(table, tableCmds, tableStates, cameraCmds, tableCameraSub)

	go cameraWorker.Run()
	tableDone := make(chan struct{})
	go func() {
		tableWorker.Run()
		close(tableDone)
	}()

	previewIntake := make(chan worker.ImageHandle, 64)
	previews := make(chan pipeline.Preview, 64)
	exportJobs := make(chan pipeline.ExportJob, 64)
	go pipeline.RunPreviewPool(previewIntake, previews, cfg.Preview.MaxWidth, cfg.Preview.MaxHeight)
	go pipeline.RunExportPool(exportJobs)

	debug.Step(4, "Starting web control surface")
	broadcaster := web.NewEventBroadcaster()
	debug.SetOutput(io.MultiWriter(os.Stdout, web.BroadcastWriter(broadcaster)))

	handlers := web.NewHandlers(broadcaster, tableCmds, cameraCmds, exportJobs,
		web.NewSession(), web.NewPreviewStore(), web.FormConfig{
			RotationSteps: cfg.Defaults.RotationSteps,
			TiltLowerDeg:  cfg.Defaults.TiltLowerDeg,
			TiltUpperDeg:  cfg.Defaults.TiltUpperDeg,
			TiltSteps:     cfg.Defaults.TiltSteps,
			ExtraDelayMs:  cfg.Camera.ExtraDelayMs,
			ExportDir:     cfg.Export.Directory,
		}, web.NewStaticFS())

	uiTableSub, unsubUITable := tableStates.Subscribe()
	defer unsubUITable()
	go handlers.WatchTableStates(uiTableSub)

	uiCameraSub, unsubUICamera := cameraStates.Subscribe()
	defer unsubUICamera()
	go handlers.WatchCameraStates(uiCameraSub)

	go handlers.WatchImages(images, previewIntake)
	go handlers.WatchPreviews(previews)

	srv := web.NewServer(fmt.Sprintf(":%d", *webPort), handlers)
	if err := srv.Run(ctx); err != nil {
		log.Fatalf("web server: %v", err)
	}

	// Shutdown: the turntable worker must be gone before its capture
	// queue closes, or a sequence caught mid-step would send on a
	// closed channel. Once it has exited the camera worker drains,
	// closes the image channel and the pools wind down.
	close(tableCmds)
	<-tableDone
	close(cameraCmds)
	debug.Info("Shutdown complete")
}
