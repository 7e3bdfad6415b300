// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.file.enabled", false)
	viper.SetDefault("log.file.path", DefaultLogPath)
	viper.SetDefault("log.file.maxsize", 100)
	viper.SetDefault("log.file.maxbackups", 3)
	viper.SetDefault("log.file.maxage", 28)
	viper.SetDefault("log.file.compress", false)

	viper.SetDefault("audio.backend", DefaultBackend)
	viper.SetDefault("audio.device", "")
	viper.SetDefault("audio.capacity", DefaultCapacity)
	viper.SetDefault("audio.highprioritycap", DefaultHighPriorityCap)
	viper.SetDefault("audio.evictionpolicy", DefaultEvictionPolicy)
	viper.SetDefault("audio.streamthreshold", DefaultStreamThreshold)
	viper.SetDefault("audio.chunkframes", DefaultChunkFrames)
	viper.SetDefault("audio.updateinterval", DefaultUpdateInterval)

	viper.SetDefault("telemetry.enabled", false)
	viper.SetDefault("telemetry.dsn", "")

	viper.SetDefault("metrics.enabled", false)
	viper.SetDefault("metrics.listen", DefaultMetricsListen)
}

// DefaultSettings returns a Settings value populated with the same defaults
// viper starts from.
func DefaultSettings() *Settings {
	return &Settings{
		Log: LogSettings{
			Level: "info",
			File: FileLogSettings{
				Path:       DefaultLogPath,
				MaxSize:    100,
				MaxBackups: 3,
				MaxAge:     28,
			},
		},
		Audio: AudioSettings{
			Backend:         DefaultBackend,
			Capacity:        DefaultCapacity,
			HighPriorityCap: DefaultHighPriorityCap,
			EvictionPolicy:  DefaultEvictionPolicy,
			StreamThreshold: DefaultStreamThreshold,
			ChunkFrames:     DefaultChunkFrames,
			UpdateInterval:  DefaultUpdateInterval,
		},
		Metrics: MetricsSettings{
			Listen: DefaultMetricsListen,
		},
	}
}
