package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/soundpool/cmd/config"
	"github.com/tphakala/soundpool/cmd/devices"
	"github.com/tphakala/soundpool/cmd/play"
	"github.com/tphakala/soundpool/cmd/simulate"
	"github.com/tphakala/soundpool/cmd/version"
	"github.com/tphakala/soundpool/internal/audiocore"
	"github.com/tphakala/soundpool/internal/buildinfo"
	"github.com/tphakala/soundpool/internal/conf"
	"github.com/tphakala/soundpool/internal/errors"
	"github.com/tphakala/soundpool/internal/logging"
	"github.com/tphakala/soundpool/internal/observability"
)

// telemetryFlushTimeout bounds how long shutdown waits for Sentry
const telemetryFlushTimeout = 2 * time.Second

// services holds what initialize started so shutdown can stop it
type services struct {
	wg       sync.WaitGroup
	quit     chan struct{}
	closeLog func() error
}

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings, build *buildinfo.Context) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "soundpool",
		Short:        "Spatial sound pool CLI",
		Long:         "Play positional sounds through a fixed pool of native sources with priority based eviction.",
		SilenceUsage: true,
	}

	// Set up the global flags for the root command.
	if err := setupFlags(rootCmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	// Add sub-commands to the root command.
	playCmd := play.Command(settings)
	devicesCmd := devices.Command()
	simulateCmd := simulate.Command(settings)
	configCmd := config.Command(settings)
	versionCmd := version.Command(build)

	subcommands := []*cobra.Command{
		playCmd,
		devicesCmd,
		simulateCmd,
		configCmd,
		versionCmd,
	}

	rootCmd.AddCommand(subcommands...)

	svc := &services{}

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// Flags wrote straight into settings, so validate the merged result
		if err := conf.ValidateSettings(settings); err != nil {
			return err
		}

		// Skip setup for commands that never touch audio
		if cmd.Name() == versionCmd.Name() || cmd.Name() == configCmd.Name() {
			return nil
		}
		return svc.initialize(settings, build)
	}

	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		return svc.shutdown()
	}

	return rootCmd
}

// initialize sets up logging, telemetry and metrics before an audio command runs
func (s *services) initialize(settings *conf.Settings, build *buildinfo.Context) error {
	level, err := logging.ParseLevel(settings.Log.Level)
	if err != nil {
		return err
	}
	if settings.Debug && level > slog.LevelDebug {
		level = slog.LevelDebug
	}

	if settings.Log.File.Enabled {
		fileLogger, closeLog, err := logging.NewFileLogger(logging.FileConfig{
			Path:       settings.Log.File.Path,
			MaxSizeMB:  settings.Log.File.MaxSize,
			MaxBackups: settings.Log.File.MaxBackups,
			MaxAgeDays: settings.Log.File.MaxAge,
			Compress:   settings.Log.File.Compress,
		}, "soundpool", level)
		if err != nil {
			return fmt.Errorf("failed to set up file logging: %w", err)
		}
		slog.SetDefault(fileLogger)
		s.closeLog = closeLog
	} else {
		logging.Init()
		// stdout carries command output
		logging.SetOutput(os.Stderr, os.Stderr)
		logging.SetLevel(level)
	}

	if settings.Telemetry.Enabled {
		if err := errors.InitSentry(settings.Telemetry.DSN, build.Release()); err != nil {
			return err
		}
		logging.Info("error telemetry enabled", "release", build.Release())
	}

	if settings.Metrics.Enabled {
		m, err := observability.NewMetrics()
		if err != nil {
			return fmt.Errorf("failed to create metrics: %w", err)
		}
		audiocore.InitMetrics(m.SoundPool)

		endpoint, err := observability.NewEndpoint(&settings.Metrics, m)
		if err != nil {
			return err
		}
		s.quit = make(chan struct{})
		if err := endpoint.Start(&s.wg, s.quit); err != nil {
			return err
		}
	}

	return nil
}

// shutdown stops the metrics endpoint, flushes telemetry and closes the log file
func (s *services) shutdown() error {
	if s.quit != nil {
		close(s.quit)
		s.wg.Wait()
		s.quit = nil
	}
	errors.FlushTelemetry(telemetryFlushTimeout)
	if s.closeLog != nil {
		closeLog := s.closeLog
		s.closeLog = nil
		return closeLog()
	}
	return nil
}

// setupFlags defines flags that are global to the command line interface.
// Defaults come from the loaded settings, which already merged file and
// environment values.
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&settings.Debug, "debug", "d", settings.Debug, "Enable debug output")
	flags.StringVar(&settings.Log.Level, "loglevel", settings.Log.Level, "Log level: trace, debug, info, warn, error")
	flags.StringVar(&settings.Audio.Backend, "backend", settings.Audio.Backend, "Playback backend: openal or sim")
	flags.StringVar(&settings.Audio.Device, "device", settings.Audio.Device, "Output device name, empty for the system default")
	flags.IntVar(&settings.Audio.Capacity, "capacity", settings.Audio.Capacity, "Number of native sources in the pool")
	flags.IntVar(&settings.Audio.HighPriorityCap, "highcap", settings.Audio.HighPriorityCap, "Maximum concurrently active high priority sounds")
	flags.StringVar(&settings.Audio.EvictionPolicy, "policy", settings.Audio.EvictionPolicy, "Eviction tie-break: oldest, newest or lowest-index")
	flags.BoolVar(&settings.Metrics.Enabled, "metrics", settings.Metrics.Enabled, "Serve Prometheus metrics")
	flags.StringVar(&settings.Metrics.Listen, "listen", settings.Metrics.Listen, "Listen address of the metrics endpoint")

	// Bind flags to their config keys so viper reports the effective values
	bindings := map[string]string{
		"debug":    "debug",
		"loglevel": "log.level",
		"backend":  "audio.backend",
		"device":   "audio.device",
		"capacity": "audio.capacity",
		"highcap":  "audio.highprioritycap",
		"policy":   "audio.evictionpolicy",
		"metrics":  "metrics.enabled",
		"listen":   "metrics.listen",
	}
	for flag, key := range bindings {
		if err := viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return fmt.Errorf("error binding flag %s: %w", flag, err)
		}
	}

	return nil
}
