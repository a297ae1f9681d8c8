package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config stores runtime configuration for the call composite.
type Config struct {
	Calling    CallingConfig
	History    HistoryConfig
	Logging    LoggingConfig
	Metrics    MetricsConfig
	Simulation SimulationConfig
	// Path is the config file that was read, empty when none existed.
	Path string
}

type CallingConfig struct {
	DisplayName         string
	BridgeURL           string
	Token               string
	ParticipantThrottle time.Duration
}

type HistoryConfig struct {
	Path      string
	Retention time.Duration
}

type LoggingConfig struct {
	Level  string
	Format string
	File   string
}

type MetricsConfig struct {
	Addr string
}

type SimulationConfig struct {
	ConnectDelay time.Duration
	Lobby        bool
	Participants int
}

// fileConfig mirrors config.yml. Zero values mean "not set".
type fileConfig struct {
	Calling struct {
		DisplayName           string `yaml:"display_name"`
		BridgeURL             string `yaml:"bridge_url"`
		Token                 string `yaml:"token"`
		ParticipantThrottleMS int    `yaml:"participant_throttle_ms"`
	} `yaml:"calling"`
	History struct {
		Path          string `yaml:"path"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"history"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		File   string `yaml:"file"`
	} `yaml:"logging"`
	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
	Simulation struct {
		ConnectDelayMS int   `yaml:"connect_delay_ms"`
		Lobby          *bool `yaml:"lobby"`
		Participants   *int  `yaml:"participants"`
	} `yaml:"simulation"`
}

const (
	defaultParticipantThrottleMS = 1250
	defaultRetentionDays         = 31
	defaultConnectDelayMS        = 400
	defaultParticipants          = 2
)

// Load resolves configuration from environment variables, the optional
// config file and defaults, in that order of precedence.
func Load() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, errors.New("could not determine home directory")
	}

	explicit := strings.TrimSpace(os.Getenv("CALLCOMPOSITE_CONFIG"))
	path := explicit
	if path == "" {
		dir := filepath.Join(home, ".config", "callcomposite")
		path = firstExisting(filepath.Join(dir, "config.yml"), filepath.Join(dir, "config.yaml"))
	}
	file, found, err := readFile(path)
	if err != nil {
		return Config{}, err
	}
	if explicit != "" && !found {
		return Config{}, fmt.Errorf("config file %s does not exist", explicit)
	}

	dataHome := firstNonEmpty(os.Getenv("XDG_DATA_HOME"), filepath.Join(home, ".local", "share"))

	cfg := Config{
		Calling: CallingConfig{
			DisplayName: envOrDefault("CALLCOMPOSITE_DISPLAY_NAME", firstNonEmpty(file.Calling.DisplayName, "Guest")),
			BridgeURL:   envOrDefault("CALLCOMPOSITE_BRIDGE_URL", file.Calling.BridgeURL),
			Token:       envOrDefault("CALLCOMPOSITE_TOKEN", file.Calling.Token),
			ParticipantThrottle: time.Duration(envOrDefaultInt("CALLCOMPOSITE_PARTICIPANT_THROTTLE_MS",
				intOrDefault(file.Calling.ParticipantThrottleMS, defaultParticipantThrottleMS))) * time.Millisecond,
		},
		History: HistoryConfig{
			Path: expandHome(envOrDefault("CALLCOMPOSITE_HISTORY_PATH",
				firstNonEmpty(file.History.Path, filepath.Join(dataHome, "callcomposite", "history.db"))), home),
			Retention: time.Duration(envOrDefaultInt("CALLCOMPOSITE_HISTORY_RETENTION_DAYS",
				intOrDefault(file.History.RetentionDays, defaultRetentionDays))) * 24 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:  envOrDefault("CALLCOMPOSITE_LOG_LEVEL", firstNonEmpty(file.Logging.Level, "info")),
			Format: envOrDefault("CALLCOMPOSITE_LOG_FORMAT", firstNonEmpty(file.Logging.Format, "text")),
			File:   expandHome(envOrDefault("CALLCOMPOSITE_LOG_FILE", file.Logging.File), home),
		},
		Metrics: MetricsConfig{
			Addr: envOrDefault("CALLCOMPOSITE_METRICS_ADDR", file.Metrics.Addr),
		},
		Simulation: SimulationConfig{
			ConnectDelay: time.Duration(envOrDefaultInt("CALLCOMPOSITE_SIM_CONNECT_DELAY_MS",
				intOrDefault(file.Simulation.ConnectDelayMS, defaultConnectDelayMS))) * time.Millisecond,
			Lobby: envOrDefaultBool("CALLCOMPOSITE_SIM_LOBBY", boolOrDefault(file.Simulation.Lobby, false)),
			Participants: envOrDefaultInt("CALLCOMPOSITE_SIM_PARTICIPANTS",
				intPtrOrDefault(file.Simulation.Participants, defaultParticipants)),
		},
	}
	if found {
		cfg.Path = path
	}

	if cfg.Calling.ParticipantThrottle <= 0 {
		cfg.Calling.ParticipantThrottle = defaultParticipantThrottleMS * time.Millisecond
	}
	if cfg.History.Retention <= 0 {
		cfg.History.Retention = defaultRetentionDays * 24 * time.Hour
	}
	if cfg.Simulation.ConnectDelay <= 0 {
		cfg.Simulation.ConnectDelay = defaultConnectDelayMS * time.Millisecond
	}
	if cfg.Simulation.Participants < 0 {
		cfg.Simulation.Participants = defaultParticipants
	}
	switch cfg.Logging.Format {
	case "text", "json":
	default:
		cfg.Logging.Format = "text"
	}

	return cfg, nil
}

func readFile(path string) (fileConfig, bool, error) {
	var file fileConfig
	if path == "" {
		return file, false, nil
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return file, false, nil
	}
	if err != nil {
		return file, false, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return file, false, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return file, true, nil
}

func firstExisting(paths ...string) string {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	if len(paths) == 0 {
		return ""
	}
	return paths[0]
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func expandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}

func intOrDefault(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}

func intPtrOrDefault(value *int, fallback int) int {
	if value == nil {
		return fallback
	}
	return *value
}

func boolOrDefault(value *bool, fallback bool) bool {
	if value == nil {
		return fallback
	}
	return *value
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDefaultBool(key string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
