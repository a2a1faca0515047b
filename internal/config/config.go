package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации движка.
type Config struct {
	World     WorldConfig     `yaml:"world" json:"world"`
	Terrain   TerrainConfig   `yaml:"terrain" json:"terrain"`
	Streaming StreamingConfig `yaml:"streaming" json:"streaming"`
	Storage   StorageConfig   `yaml:"storage" json:"storage"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
	Server    ServerConfig    `yaml:"server" json:"server"`
	Telemetry TelemetryConfig `yaml:"telemetry" json:"telemetry"`
}

type WorldConfig struct {
	Seed            int64 `yaml:"seed" json:"seed"`
	TickIntervalMs  int   `yaml:"tick_interval_ms" json:"tick_interval_ms"`
	FrameIntervalMs int   `yaml:"frame_interval_ms" json:"frame_interval_ms"`
}

// TerrainConfig параметры NoiseHeightSampler и декоратора
type TerrainConfig struct {
	MacroScale   float64 `yaml:"macro_scale" json:"macro_scale"`
	MicroScale   float64 `yaml:"micro_scale" json:"micro_scale"`
	HeightScale  float64 `yaml:"height_scale" json:"height_scale"`
	MinGenHeight int     `yaml:"min_generation_height" json:"min_generation_height"`
	OffsetX      float64 `yaml:"offset_x" json:"offset_x"`
	OffsetZ      float64 `yaml:"offset_z" json:"offset_z"`
	Trees        bool    `yaml:"trees" json:"trees"`
}

type StreamingConfig struct {
	RenderDistance     int `yaml:"render_distance" json:"render_distance"`
	MaxConcurrentLoads int `yaml:"max_concurrent_loads" json:"max_concurrent_loads"`
	MeshWorkers        int `yaml:"mesh_workers" json:"mesh_workers"`
	// Пауза после каждой колонки генерации, троттлинг загрузки
	GenerationStepDelayUs int `yaml:"generation_step_delay_us" json:"generation_step_delay_us"`
}

// StorageConfig хранилище выгруженных регионов
type StorageConfig struct {
	Backend  string `yaml:"backend" json:"backend"` // memory | badger
	Compress bool   `yaml:"compress" json:"compress"`
}

type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	Dir   string `yaml:"dir" json:"dir"`
}

type ServerConfig struct {
	Enabled   bool `yaml:"enabled" json:"enabled"`
	DebugPort int  `yaml:"debug_port" json:"debug_port"`
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled" json:"enabled"`
	Endpoint    string `yaml:"endpoint" json:"endpoint"`
	ServiceName string `yaml:"service_name" json:"service_name"`
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		World: WorldConfig{
			Seed:            1337,
			TickIntervalMs:  100,
			FrameIntervalMs: 16,
		},
		Terrain: TerrainConfig{
			MacroScale:   0.5,
			MicroScale:   5,
			HeightScale:  0.7,
			MinGenHeight: 32,
			Trees:        true,
		},
		Streaming: StreamingConfig{
			RenderDistance:     8,
			MaxConcurrentLoads: 4,
			MeshWorkers:        4,
		},
		Storage: StorageConfig{
			Backend:  "memory",
			Compress: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Server: ServerConfig{
			Enabled: true,
		},
		Telemetry: TelemetryConfig{
			Endpoint:    "localhost:4318",
			ServiceName: "voxeld",
		},
	}
}

// TickInterval период тика распространения обновлений
func (w *WorldConfig) TickInterval() time.Duration {
	return time.Duration(w.TickIntervalMs) * time.Millisecond
}

// FrameInterval период итерации основного цикла
func (w *WorldConfig) FrameInterval() time.Duration {
	return time.Duration(w.FrameIntervalMs) * time.Millisecond
}

func (s *StreamingConfig) GenerationStepDelay() time.Duration {
	return time.Duration(s.GenerationStepDelayUs) * time.Microsecond
}

// GetDebugPort возвращает порт отладочного HTTP сервера с поддержкой fallback значений
func (s *ServerConfig) GetDebugPort() int {
	return getPortWithEnvFallback(s.DebugPort, "VOXEL_DEBUG_PORT", 8090)
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	// Если порт задан в конфиге и больше 0, используем его
	if configPort > 0 {
		return configPort
	}

	// Пробуем прочитать из environment variable
	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	// Используем дефолтное значение
	return defaultPort
}

//go:embed schema.json
var schemaJSON string

var schema = jsonschema.MustCompileString("config.schema.json", schemaJSON)

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", пытается прочитать из ENV VOXEL_CONFIG, иначе возвращает Default().
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("VOXEL_CONFIG")
		if path == "" {
			return Default(), nil // конфиг не задан - использовать дефолты
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение конфигурации %s: %w", path, err)
	}
	return Parse(data)
}

// Parse разбирает YAML поверх значений по умолчанию и проверяет результат
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("разбор конфигурации: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет итоговую конфигурацию по встроенной JSON-схеме
func (c *Config) Validate() error {
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("сериализация конфигурации: %w", err)
	}
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("сериализация конфигурации: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("некорректная конфигурация: %w", err)
	}
	return nil
}
