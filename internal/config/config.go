package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/annel0/tome/internal/vec"
)

// Config корневая структура конфигурации генератора.
type Config struct {
	Generator GeneratorConfig `yaml:"generator"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Observer  ObserverConfig  `yaml:"observer"`
	Store     StoreConfig     `yaml:"store"`
	EventBus  EventBusConfig  `yaml:"eventbus"`
	Server    ServerConfig    `yaml:"server"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// Triple тройка чисел в YAML ([x, y, z])
type Triple [3]float64

// Vec переводит тройку в вектор
func (t Triple) Vec() vec.Vec3Float {
	return vec.Vec3Float{X: t[0], Y: t[1], Z: t[2]}
}

// Cell переводит тройку в координату ячейки (с округлением)
func (t Triple) Cell() vec.Vec3 {
	return t.Vec().Round()
}

type GeneratorConfig struct {
	RenderDistance            float64 `yaml:"render_distance"`
	CellSize                  Triple  `yaml:"cell_size"`
	Origin                    Triple  `yaml:"origin"`
	Seed                      int64   `yaml:"seed"`
	TickIntervalMs            int     `yaml:"tick_interval_ms"`
	DebugDraw                 bool    `yaml:"debug_draw"`
	RefreshMirroredVisibility bool    `yaml:"refresh_mirrored_visibility"`
	SymmetricBlacklist        bool    `yaml:"symmetric_blacklist"`
}

// TickInterval интервал между тиками
func (g GeneratorConfig) TickInterval() time.Duration {
	return time.Duration(g.TickIntervalMs) * time.Millisecond
}

type CatalogConfig struct {
	Source string      `yaml:"source"` // file | mongo
	Path   string      `yaml:"path"`
	Mongo  MongoConfig `yaml:"mongo"`
}

type MongoConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

type ObserverConfig struct {
	Source string      `yaml:"source"` // static | walker | redis | maria
	ID     string      `yaml:"id"`
	Start  Triple      `yaml:"start"`
	Speed  float64     `yaml:"speed"`
	Climb  float64     `yaml:"climb"` // walker: наибольший вертикальный сдвиг за тик
	Redis  RedisConfig `yaml:"redis"`
	Maria  MariaConfig `yaml:"maria"`
}

type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

type MariaConfig struct {
	DSN string `yaml:"dsn"`
}

type StoreConfig struct {
	Backend string `yaml:"backend"` // memory | badger
}

type EventBusConfig struct {
	Backend   string `yaml:"backend"` // memory | nats
	URL       string `yaml:"url"`
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
}

type ServerConfig struct {
	RESTPort    int `yaml:"rest_port"`
	MetricsPort int `yaml:"metrics_port"`
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

type LoggingConfig struct {
	Dir          string                     `yaml:"dir"`
	ConsoleLevel string                     `yaml:"console_level"`
	FileLevel    string                     `yaml:"file_level"`
	Components   map[string]ComponentLevels `yaml:"components"`
}

// ComponentLevels уровни отдельного компонента, пустое значение наследует общий уровень
type ComponentLevels struct {
	Console string `yaml:"console"`
	File    string `yaml:"file"`
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		Generator: GeneratorConfig{
			RenderDistance:     10000,
			CellSize:           Triple{2000, 2000, 1000},
			Seed:               1337,
			TickIntervalMs:     20,
			SymmetricBlacklist: true,
		},
		Catalog: CatalogConfig{
			Source: "file",
			Path:   "assets/catalog/library.yaml",
			Mongo:  MongoConfig{Database: "tome", Collection: "tiles"},
		},
		Observer: ObserverConfig{
			Source: "walker",
			ID:     "player-0",
			Speed:  350,
			Redis:  RedisConfig{Addr: "localhost:6379", KeyPrefix: "tome:observer:"},
		},
		Store:     StoreConfig{Backend: "memory"},
		EventBus:  EventBusConfig{Backend: "memory", URL: "nats://127.0.0.1:4222", Stream: "TILES", Retention: 24},
		Telemetry: TelemetryConfig{ServiceName: "tome-generator"},
		Logging:   LoggingConfig{Dir: "logs", ConsoleLevel: "INFO", FileLevel: "DEBUG"},
	}
}

// GetRESTPort возвращает REST API порт с поддержкой fallback значений
func (s *ServerConfig) GetRESTPort() int {
	return getPortWithEnvFallback(s.RESTPort, "TOME_REST_PORT", 8088)
}

// GetMetricsPort возвращает Prometheus метрики порт с поддержкой fallback значений
func (s *ServerConfig) GetMetricsPort() int {
	return getPortWithEnvFallback(s.MetricsPort, "TOME_METRICS_PORT", 2112)
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	if configPort > 0 {
		return configPort
	}

	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	return defaultPort
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", пытается прочитать путь из ENV TOME_CONFIG, иначе возвращает Default().
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("TOME_CONFIG")
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение конфигурации %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("разбор конфигурации %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет значения, без которых генератор не может работать
func (c *Config) Validate() error {
	g := c.Generator
	if g.RenderDistance <= 0 {
		return fmt.Errorf("generator.render_distance должен быть положительным: %v", g.RenderDistance)
	}
	for i, v := range g.CellSize {
		if v <= 0 {
			return fmt.Errorf("generator.cell_size[%d] должен быть положительным: %v", i, v)
		}
	}
	if g.TickIntervalMs <= 0 {
		return fmt.Errorf("generator.tick_interval_ms должен быть положительным: %d", g.TickIntervalMs)
	}

	switch c.Catalog.Source {
	case "file", "mongo":
	default:
		return fmt.Errorf("catalog.source: неизвестный источник %q", c.Catalog.Source)
	}
	switch c.Observer.Source {
	case "static", "walker", "redis", "maria":
	default:
		return fmt.Errorf("observer.source: неизвестный источник %q", c.Observer.Source)
	}
	switch c.Store.Backend {
	case "memory", "badger":
	default:
		return fmt.Errorf("store.backend: неизвестное хранилище %q", c.Store.Backend)
	}
	switch c.EventBus.Backend {
	case "memory", "nats":
	default:
		return fmt.Errorf("eventbus.backend: неизвестная шина %q", c.EventBus.Backend)
	}
	return nil
}
