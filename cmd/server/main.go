package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/annel0/tome/internal/api"
	"github.com/annel0/tome/internal/config"
	"github.com/annel0/tome/internal/eventbus"
	"github.com/annel0/tome/internal/logging"
	"github.com/annel0/tome/internal/metrics"
	"github.com/annel0/tome/internal/observability"
	"github.com/annel0/tome/internal/snapshot"
	"github.com/annel0/tome/internal/tile"
	"github.com/annel0/tome/internal/world"
	"github.com/annel0/tome/internal/world/actor"
)

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (иначе TOME_CONFIG)")
	ticks := flag.Int("ticks", 0, "выполнить N тиков без REST API и выйти")
	snapshotPath := flag.String("snapshot", "", "сохранить снимок карты после завершения")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	if err := setupLogging(cfg.Logging); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer closeLogging()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *ticks, *snapshotPath); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error("❌ %v", err)
		closeLogging()
		os.Exit(1)
	}
	logging.Info("👋 Генератор остановлен")
}

func setupLogging(cfg config.LoggingConfig) error {
	consoleLevel, err := logging.ParseLevel(cfg.ConsoleLevel)
	if err != nil {
		return err
	}
	fileLevel, err := logging.ParseLevel(cfg.FileLevel)
	if err != nil {
		return err
	}
	logging.Configure(logging.Options{Dir: cfg.Dir, MinConsoleLevel: consoleLevel, MinFileLevel: fileLevel})

	manager := logging.GetLoggerManager()
	for component, lv := range cfg.Components {
		console, file := consoleLevel, fileLevel
		if lv.Console != "" {
			if console, err = logging.ParseLevel(lv.Console); err != nil {
				return fmt.Errorf("logging.components.%s: %w", component, err)
			}
		}
		if lv.File != "" {
			if file, err = logging.ParseLevel(lv.File); err != nil {
				return fmt.Errorf("logging.components.%s: %w", component, err)
			}
		}
		manager.SetLogLevel(component, console, file)
	}
	return logging.InitDefaultLogger("server")
}

func closeLogging() {
	if err := logging.GetLoggerManager().CloseAll(); err != nil {
		log.Printf("⚠️ Ошибка закрытия логов: %v", err)
	}
	logging.CloseDefaultLogger()
}

func run(ctx context.Context, cfg *config.Config, ticks int, snapshotPath string) error {
	logging.Info("🎲 Запуск генератора тайлов (seed=%d, render_distance=%.0f)", cfg.Generator.Seed, cfg.Generator.RenderDistance)

	shutdownTelemetry, err := observability.InitTelemetry(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.Enabled)
	if err != nil {
		return fmt.Errorf("телеметрия: %w", err)
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			logging.Warn("Ошибка остановки телеметрии: %v", err)
		}
	}()

	var res closers
	defer res.closeAll()

	cat, err := loadCatalog(ctx, cfg.Catalog)
	if err != nil {
		return fmt.Errorf("каталог: %w", err)
	}
	logging.GetCatalogLogger().Info("Каталог загружен: %d определений (%s)", cat.Len(), cfg.Catalog.Source)

	store, err := buildStore(cfg.Store, cat, &res)
	if err != nil {
		return fmt.Errorf("хранилище тайлов: %w", err)
	}

	scene := actor.NewScene()
	types := make([]tile.TypeRef, 0, cat.Len())
	for _, def := range cat.Definitions() {
		types = append(types, def.Type)
	}
	scene.RestrictTypes(types...)

	obs, err := buildObserver(ctx, cfg.Observer, cfg.Generator.Seed, &res)
	if err != nil {
		return fmt.Errorf("наблюдатель: %w", err)
	}

	bus, err := buildBus(cfg.EventBus, &res)
	if err != nil {
		return fmt.Errorf("шина событий: %w", err)
	}
	if _, err := eventbus.StartLoggingListener(ctx, bus); err != nil {
		return fmt.Errorf("шина событий: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	busMetrics := eventbus.NewMetricsExporter(bus, reg)
	busMetrics.Start()
	defer busMetrics.Stop()

	grid, err := world.NewGrid(cfg.Generator.CellSize.Vec())
	if err != nil {
		return err
	}
	gen, err := world.NewGenerator(world.GeneratorConfig{
		Grid:                      grid,
		Origin:                    cfg.Generator.Origin.Cell(),
		SymmetricBlacklist:        cfg.Generator.SymmetricBlacklist,
		RefreshMirroredVisibility: cfg.Generator.RefreshMirroredVisibility,
	}, cat, store, scene, rand.New(rand.NewSource(cfg.Generator.Seed)))
	if err != nil {
		return err
	}
	gen.SetAnchor(scene.CreateAnchor("tiles"))
	gen.SetEventSink(eventbus.NewTilePublisher(bus, cfg.Telemetry.ServiceName))
	gen.SetMetrics(metrics.NewGeneratorMetrics(reg))

	streamer, err := world.NewStreamer(gen, obs, cfg.Generator.RenderDistance)
	if err != nil {
		return err
	}
	var scan *world.ScanRecorder
	if cfg.Generator.DebugDraw {
		scan = world.NewScanRecorder()
		streamer.SetDebugDrawer(scan)
	}

	runner := world.NewRunner(streamer, cfg.Generator.TickInterval())

	if ticks > 0 {
		return runHeadless(ctx, runner, ticks, snapshotPath)
	}

	rest, err := api.NewRestServer(api.Config{
		Port:     fmt.Sprintf(":%d", cfg.Server.GetRESTPort()),
		Runner:   runner,
		Scene:    scene,
		Scan:     scan,
		Bus:      bus,
		Registry: reg,
	})
	if err != nil {
		return err
	}

	metricsSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.GetMetricsPort()),
		Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() { errCh <- rest.Start() }()
	go func() {
		logging.Info("📈 Prometheus /metrics доступен по адресу %s", metricsSrv.Addr)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	logging.Info("✅ Генератор запущен")
	logging.Info("   🌐 REST API: http://localhost:%d", cfg.Server.GetRESTPort())
	logging.Info("   ❤️  Health check: http://localhost:%d/health", cfg.Server.GetRESTPort())

	// Цикл тиков останавливается до закрытия хранилища и шины
	runErr := runLoop(ctx, runner.Run, errCh)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rest.Stop(shutdownCtx); err != nil {
		logging.Warn("Ошибка остановки REST API: %v", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logging.Warn("Ошибка остановки /metrics: %v", err)
	}

	if snapshotPath != "" {
		if err := saveSnapshot(runner, snapshotPath); err != nil {
			logging.Error("Снимок не сохранён: %v", err)
		}
	}
	return runErr
}

// runLoop крутит loop до сигнала или ошибки сервера и возвращается
// только после выхода loop.
func runLoop(ctx context.Context, loop func(context.Context) error, errCh <-chan error) error {
	loopCtx, stop := context.WithCancel(ctx)
	defer stop()

	loopDone := make(chan error, 1)
	go func() { loopDone <- loop(loopCtx) }()

	var runErr error
	select {
	case <-ctx.Done():
		logging.Info("📡 Получен сигнал завершения")
	case runErr = <-errCh:
		logging.Error("Сервер остановился: %v", runErr)
	case err := <-loopDone:
		return err
	}

	stop()
	if err := <-loopDone; err != nil && !errors.Is(err, context.Canceled) && runErr == nil {
		runErr = err
	}
	return runErr
}

func runHeadless(ctx context.Context, runner *world.Runner, ticks int, snapshotPath string) error {
	var last world.TickReport
	for i := 0; i < ticks; i++ {
		report, err := runner.Step(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logging.Error("Ошибка тика %d: %v", i, err)
			continue
		}
		last = report
	}

	var decided int
	runner.View(func(gen *world.Generator) { decided = gen.Store().Len() })

	out, err := json.MarshalIndent(struct {
		Ticks    uint64           `json:"ticks"`
		Failures uint64           `json:"failures"`
		Decided  int              `json:"decided"`
		Last     world.TickReport `json:"last"`
	}{runner.Ticks(), runner.Failures(), decided, last}, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))

	if snapshotPath != "" {
		return saveSnapshot(runner, snapshotPath)
	}
	return nil
}

func saveSnapshot(runner *world.Runner, path string) error {
	var (
		snap snapshot.Snapshot
		err  error
	)
	runner.View(func(gen *world.Generator) {
		snap, err = snapshot.Capture(gen.Store(), gen.Spawner(), gen.Grid(), time.Now())
	})
	if err != nil {
		return err
	}
	if err := snapshot.WriteFile(path, snap); err != nil {
		return err
	}
	logging.Info("💾 Снимок сохранён: %s (%d ячеек)", path, snap.Header.Tiles)
	return nil
}
