package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/annel0/voxel-stream/internal/api"
	"github.com/annel0/voxel-stream/internal/config"
	"github.com/annel0/voxel-stream/internal/logging"
	"github.com/annel0/voxel-stream/internal/observability"
	"github.com/annel0/voxel-stream/internal/storage"
	"github.com/annel0/voxel-stream/internal/world"
	_ "github.com/annel0/voxel-stream/internal/world/block/implementations"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

func main() {
	var (
		configPath = flag.String("config", "", "путь к YAML конфигурации (по умолчанию $VOXEL_CONFIG)")
		walkRadius = flag.Float64("radius", 96, "радиус маршрута наблюдателя в блоках, 0 - стоять на месте")
		walkSpeed  = flag.Float64("speed", 12, "скорость наблюдателя, блоков в секунду")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("❌ Ошибка конфигурации логирования: %v", err)
	}
	if err := logging.InitLogger(logging.Options{
		Dir:          cfg.Logging.Dir,
		ConsoleLevel: level,
		FileLevel:    logging.DEBUG,
	}); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}

	code := 0
	if err := run(cfg, *walkRadius, *walkSpeed); err != nil {
		logging.LogError("❌ %v", err)
		code = 1
	}
	logging.CloseLogger()
	os.Exit(code)
}

func run(cfg *config.Config, radius, speed float64) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.LogInfo("🎮 Запуск voxeld: seed=%d, радиус прорисовки %d, загрузок %d",
		cfg.World.Seed, cfg.Streaming.RenderDistance, cfg.Streaming.MaxConcurrentLoads)

	shutdownTelemetry, err := observability.InitTelemetry(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("инициализация телеметрии: %w", err)
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			logging.LogWarn("⚠️ остановка телеметрии: %v", err)
		}
	}()

	inactive, err := storage.New(cfg.Storage.Backend, cfg.Storage.Compress)
	if err != nil {
		return fmt.Errorf("хранилище выгруженных регионов: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	opts := world.OptionsFromConfig(cfg)
	opts.Inactive = inactive
	opts.Registerer = reg
	w := world.NewWorld(opts)
	defer func() {
		if err := w.Close(); err != nil {
			logging.LogWarn("⚠️ %v", err)
		}
	}()

	observer := newScriptedObserver(mgl32.Vec3{world.SizeX / 2, 0, world.SizeZ / 2}, radius, speed)
	spawn, err := w.Start(ctx, observer)
	if err != nil {
		return err
	}
	observer.Recenter(mgl32.Vec3{float32(spawn.X), float32(spawn.Y), float32(spawn.Z)})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.Run(gctx, observer)
	})
	if cfg.Server.Enabled {
		srv := api.NewDebugServer(api.Config{
			Port:     cfg.Server.GetDebugPort(),
			World:    w,
			Registry: reg,
		})
		g.Go(func() error {
			return srv.Run(gctx)
		})
	}

	logging.LogInfo("✅ Мир запущен, наблюдатель идёт по кругу радиусом %.0f со скоростью %.1f блок/с", radius, speed)
	err = g.Wait()
	logging.LogInfo("👋 voxeld остановлен")
	return err
}
