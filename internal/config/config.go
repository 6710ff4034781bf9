package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"
)

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Port                   string `yaml:"port"`
	ShutdownTimeoutSeconds int    `yaml:"shutdown_timeout_seconds"`
}

// SolverConfig holds the implied volatility search defaults used when a
// request does not carry its own.
type SolverConfig struct {
	MaxIterations int     `yaml:"max_iterations"`
	Tolerance     float64 `yaml:"tolerance"`
}

// ValidationConfig switches on the strict input check. Off by default: bad
// inputs are priced and come back as NaN/Inf.
type ValidationConfig struct {
	Strict bool `yaml:"strict"`
}

// HeatmapConfig holds the default strike × volatility grid.
type HeatmapConfig struct {
	Spot       float64 `yaml:"spot"`
	Time       float64 `yaml:"time"`
	Rate       float64 `yaml:"rate"`
	MinStrike  float64 `yaml:"min_strike"`
	MaxStrike  float64 `yaml:"max_strike"`
	StrikeStep float64 `yaml:"strike_step"`
	MinVol     float64 `yaml:"min_vol"`
	MaxVol     float64 `yaml:"max_vol"`
	VolStep    float64 `yaml:"vol_step"`
}

// DisplayConfig controls rounding of the display strings in API responses.
type DisplayConfig struct {
	PricePlaces int32 `yaml:"price_places"`
	GreekPlaces int32 `yaml:"greek_places"`
}

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
	Solver     SolverConfig     `yaml:"solver"`
	Validation ValidationConfig `yaml:"validation"`
	Heatmap    HeatmapConfig    `yaml:"heatmap"`
	Display    DisplayConfig    `yaml:"display"`
}

// Load builds the configuration from environment variables, then applies
// the YAML file named by BS_CONFIG_FILE (default config.yaml) on top.
// A missing or unparsable file is ignored.
func Load() *Config {
	cfg := defaults()

	if yamlCfg, err := readYAML(getEnv("BS_CONFIG_FILE", "config.yaml")); err == nil {
		merge(cfg, yamlCfg)
	}

	return cfg
}

// LoadFromFile is Load with an explicit file that must exist and parse.
func LoadFromFile(path string) (*Config, error) {
	cfg := defaults()

	yamlCfg, err := readYAML(path)
	if err != nil {
		return nil, err
	}
	merge(cfg, yamlCfg)

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:                   getEnv("PORT", "8080"),
			ShutdownTimeoutSeconds: getEnvInt("SHUTDOWN_TIMEOUT_SECONDS", 15),
		},
		Logging: LoggingConfig{
			LogLevel: getEnv("LOG_LEVEL", "info"),
			LogFile:  getEnv("LOG_FILE", ""),
		},
		Solver: SolverConfig{
			MaxIterations: getEnvInt("SOLVER_MAX_ITERATIONS", 100),
			Tolerance:     getEnvFloat("SOLVER_TOLERANCE", 1e-6),
		},
		Validation: ValidationConfig{
			Strict: getEnvBool("VALIDATION_STRICT", false),
		},
		Heatmap: HeatmapConfig{
			Spot:       100,
			Time:       1,
			Rate:       0.05,
			MinStrike:  80,
			MaxStrike:  120,
			StrikeStep: 5,
			MinVol:     0.1,
			MaxVol:     0.5,
			VolStep:    0.05,
		},
		Display: DisplayConfig{
			PricePlaces: 4,
			GreekPlaces: 4,
		},
	}
}

func readYAML(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var yamlCfg Config
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return &yamlCfg, nil
}

// merge copies every non-zero YAML value over the environment defaults.
func merge(cfg, yamlCfg *Config) {
	if yamlCfg.Server.Port != "" {
		cfg.Server.Port = yamlCfg.Server.Port
	}
	if yamlCfg.Server.ShutdownTimeoutSeconds > 0 {
		cfg.Server.ShutdownTimeoutSeconds = yamlCfg.Server.ShutdownTimeoutSeconds
	}

	if yamlCfg.Logging.LogLevel != "" {
		cfg.Logging.LogLevel = yamlCfg.Logging.LogLevel
	}
	if yamlCfg.Logging.LogFile != "" {
		cfg.Logging.LogFile = yamlCfg.Logging.LogFile
	}

	if yamlCfg.Solver.MaxIterations > 0 {
		cfg.Solver.MaxIterations = yamlCfg.Solver.MaxIterations
	}
	if yamlCfg.Solver.Tolerance > 0 {
		cfg.Solver.Tolerance = yamlCfg.Solver.Tolerance
	}

	// strict can only be switched on from YAML
	if yamlCfg.Validation.Strict {
		cfg.Validation.Strict = true
	}

	h := yamlCfg.Heatmap
	setIfPositive(&cfg.Heatmap.Spot, h.Spot)
	setIfPositive(&cfg.Heatmap.Time, h.Time)
	if h.Rate != 0 {
		cfg.Heatmap.Rate = h.Rate
	}
	setIfPositive(&cfg.Heatmap.MinStrike, h.MinStrike)
	setIfPositive(&cfg.Heatmap.MaxStrike, h.MaxStrike)
	setIfPositive(&cfg.Heatmap.StrikeStep, h.StrikeStep)
	setIfPositive(&cfg.Heatmap.MinVol, h.MinVol)
	setIfPositive(&cfg.Heatmap.MaxVol, h.MaxVol)
	setIfPositive(&cfg.Heatmap.VolStep, h.VolStep)

	if yamlCfg.Display.PricePlaces > 0 {
		cfg.Display.PricePlaces = yamlCfg.Display.PricePlaces
	}
	if yamlCfg.Display.GreekPlaces > 0 {
		cfg.Display.GreekPlaces = yamlCfg.Display.GreekPlaces
	}
}

func setIfPositive(dst *float64, v float64) {
	if v > 0 {
		*dst = v
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
