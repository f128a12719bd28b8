package timefit

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type (
	Config struct {
		Start        Field
		Stop         Field
		Direction    Direction
		SortField    SortField
		Filter       func(any) bool
		FallbackZone *time.Location
		Store        StoreConfig
	}

	StoreConfig struct {
		Addr         string
		Password     string
		Prefix       string
		DB           int
		WorkerCount  int
		MaxQueueSize int
		SaveTimeout  time.Duration
		Logger       *zap.Logger
	}

	// fileConfig is the YAML shape accepted by LoadConfig; functional
	// designators and loggers cannot be expressed in a file
	fileConfig struct {
		StartField   string          `yaml:"start_field"`
		StopField    string          `yaml:"stop_field"`
		Direction    string          `yaml:"direction"`
		SortField    string          `yaml:"sort_field"`
		FallbackZone string          `yaml:"fallback_zone"`
		Store        fileStoreConfig `yaml:"store"`
	}

	fileStoreConfig struct {
		Addr         string `yaml:"addr"`
		Password     string `yaml:"password"`
		Prefix       string `yaml:"prefix"`
		DB           int    `yaml:"db"`
		WorkerCount  int    `yaml:"worker_count"`
		MaxQueueSize int    `yaml:"max_queue_size"`
		SaveTimeout  string `yaml:"save_timeout"`
	}
)

const (
	DefaultStartField = "start"
	DefaultStopField  = "stop"

	DefaultRedisEndpoint    = "localhost:6379"
	DefaultRedisPrefix      = "timefit"
	DefaultRedisDB          = 0
	DefaultPersistWorkers   = 4
	DefaultPersistQueueSize = 1024
	DefaultPersistTimeout   = 30 * time.Second
)

func DefaultConfig() Config {
	return Config{
		Start:     Named(DefaultStartField),
		Stop:      Named(DefaultStopField),
		Direction: Ascending,
		SortField: SortByStart,
		Store:     DefaultStoreConfig(),
	}
}

func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		Addr:         DefaultRedisEndpoint,
		Password:     "",
		DB:           DefaultRedisDB,
		Prefix:       DefaultRedisPrefix,
		WorkerCount:  DefaultPersistWorkers,
		MaxQueueSize: DefaultPersistQueueSize,
		SaveTimeout:  DefaultPersistTimeout,
	}
}

// LoadConfig reads a YAML configuration file, applying defaults for any
// field left unset
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return parseConfig(data)
}

func parseConfig(data []byte) (Config, error) {
	fc := fileConfig{}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return Config{}, err
	}

	cfg := DefaultConfig()
	if fc.StartField != "" {
		cfg.Start = Named(fc.StartField)
	}
	if fc.StopField != "" {
		cfg.Stop = Named(fc.StopField)
	}

	switch fc.Direction {
	case "", "ascending":
		cfg.Direction = Ascending
	case "descending":
		cfg.Direction = Descending
	default:
		return Config{}, fmt.Errorf("unknown direction: %q", fc.Direction)
	}

	switch fc.SortField {
	case "", "start":
		cfg.SortField = SortByStart
	case "stop":
		cfg.SortField = SortByStop
	default:
		return Config{}, fmt.Errorf("unknown sort field: %q", fc.SortField)
	}

	if fc.FallbackZone != "" {
		loc, err := time.LoadLocation(fc.FallbackZone)
		if err != nil {
			return Config{}, err
		}
		cfg.FallbackZone = loc
	}

	if fc.Store.Addr != "" {
		cfg.Store.Addr = fc.Store.Addr
	}
	cfg.Store.Password = fc.Store.Password
	if fc.Store.Prefix != "" {
		cfg.Store.Prefix = fc.Store.Prefix
	}
	cfg.Store.DB = fc.Store.DB
	if fc.Store.WorkerCount > 0 {
		cfg.Store.WorkerCount = fc.Store.WorkerCount
	}
	if fc.Store.MaxQueueSize > 0 {
		cfg.Store.MaxQueueSize = fc.Store.MaxQueueSize
	}
	if fc.Store.SaveTimeout != "" {
		d, err := time.ParseDuration(fc.Store.SaveTimeout)
		if err != nil {
			return Config{}, err
		}
		cfg.Store.SaveTimeout = d
	}

	return cfg, nil
}
