// conf/config.go
package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"
	"github.com/tphakala/soundpool/internal/errors"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override, e.g. SOUNDPOOL_AUDIO_CAPACITY.
const EnvPrefix = "SOUNDPOOL"

// Settings contains all configuration options for the sound pool runtime.
type Settings struct {
	Debug bool `yaml:"debug"` // true to enable debug mode

	Log       LogSettings       `yaml:"log"`
	Audio     AudioSettings     `yaml:"audio"`
	Telemetry TelemetrySettings `yaml:"telemetry"`
	Metrics   MetricsSettings   `yaml:"metrics"`
}

// LogSettings controls the process loggers.
type LogSettings struct {
	Level string          `yaml:"level"` // trace, debug, info, warn, error
	File  FileLogSettings `yaml:"file"`
}

// FileLogSettings controls the optional rotating log file.
type FileLogSettings struct {
	Enabled    bool   `yaml:"enabled"`
	Path       string `yaml:"path"`
	MaxSize    int    `yaml:"maxsize"`    // megabytes before rotation
	MaxBackups int    `yaml:"maxbackups"` // rotated files to keep
	MaxAge     int    `yaml:"maxage"`     // days to keep rotated files
	Compress   bool   `yaml:"compress"`
}

// AudioSettings configures the playback device and the source pool.
type AudioSettings struct {
	Backend         string `yaml:"backend"`         // openal or sim
	Device          string `yaml:"device"`          // output device name, empty for the system default
	Capacity        int    `yaml:"capacity"`        // number of native sources the pool owns
	HighPriorityCap int    `yaml:"highprioritycap"` // maximum concurrently active high priority sounds
	EvictionPolicy  string `yaml:"evictionpolicy"`  // oldest, newest or lowest-index
	StreamThreshold int    `yaml:"streamthreshold"` // payloads above this many bytes are loaded as streamed buffers
	ChunkFrames     int    `yaml:"chunkframes"`     // frames per chunk for streamed buffers
	UpdateInterval  int    `yaml:"updateinterval"`  // milliseconds between pool updates in long running commands
}

// TelemetrySettings configures Sentry error reporting.
type TelemetrySettings struct {
	Enabled bool   `yaml:"enabled"`
	DSN     string `yaml:"dsn"`
}

// MetricsSettings configures the Prometheus endpoint.
type MetricsSettings struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"` // host:port for the /metrics endpoint
}

// settingsInstance is the current settings instance
var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into a new
// Settings instance. An empty configPath searches the default locations.
func Load(configPath string) (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(configPath); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper(configPath string) error {
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaultConfig()

	if configPath != "" {
		viper.SetConfigFile(configPath)
		if err := viper.ReadInConfig(); err != nil {
			return errors.New(err).
				Category(errors.CategoryConfiguration).
				Context("operation", "read-config").
				FileContext(configPath, 0).
				Build()
		}
		return nil
	}

	viper.SetConfigName("config")
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// Defaults and environment still apply without a file.
			return nil
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// GetSettings returns the most recently loaded settings instance
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// ConfigFileUsed returns the path of the config file viper read, if any.
func ConfigFileUsed() string {
	return viper.ConfigFileUsed()
}

// WriteDefaultConfig writes a config file populated with default values.
// An existing file is left untouched unless overwrite is set.
func WriteDefaultConfig(configPath string, overwrite bool) error {
	if _, err := os.Stat(configPath); err == nil && !overwrite {
		return errors.Newf("config file already exists").
			Category(errors.CategoryConflict).
			Context("operation", "write-default-config").
			FileContext(configPath, 0).
			Build()
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}

	return SaveYAMLConfig(configPath, DefaultSettings())
}

// SaveYAMLConfig writes settings to configPath as YAML.
// It overwrites the existing file, not preserving comments or structure.
func SaveYAMLConfig(configPath string, settings *Settings) error {
	yamlData, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings to YAML: %w", err)
	}

	// Write to a temporary file first so a failed write never truncates the config
	tempFile, err := os.CreateTemp(filepath.Dir(configPath), "config-*.yaml")
	if err != nil {
		return fmt.Errorf("error creating temporary file: %w", err)
	}
	tempFileName := tempFile.Name()
	defer func() { _ = os.Remove(tempFileName) }()

	if _, err := tempFile.Write(yamlData); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("error writing to temporary file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("error closing temporary file: %w", err)
	}

	if err := os.Rename(tempFileName, configPath); err != nil {
		return fmt.Errorf("error replacing config file: %w", err)
	}

	return nil
}
