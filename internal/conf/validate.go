// conf/validate.go

package conf

import (
	"fmt"
	"net"
	"slices"
	"strings"

	"github.com/tphakala/soundpool/internal/logging"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	if err := validateLogSettings(&settings.Log); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateAudioSettings(&settings.Audio); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateTelemetrySettings(&settings.Telemetry); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateMetricsSettings(&settings.Metrics); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateLogSettings(settings *LogSettings) error {
	if _, err := logging.ParseLevel(settings.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if settings.File.Enabled && strings.TrimSpace(settings.File.Path) == "" {
		return fmt.Errorf("log.file.path must be set when file logging is enabled")
	}
	return nil
}

// validateAudioSettings validates the device and source pool settings
func validateAudioSettings(settings *AudioSettings) error {
	var errs []string

	backend := strings.ToLower(settings.Backend)
	if backend != BackendOpenAL && backend != BackendSim {
		errs = append(errs, fmt.Sprintf("audio.backend must be %q or %q, got %q", BackendOpenAL, BackendSim, settings.Backend))
	}

	if settings.Capacity < 1 || settings.Capacity > MaxCapacity {
		errs = append(errs, fmt.Sprintf("audio.capacity must be between 1 and %d, got %d", MaxCapacity, settings.Capacity))
	}

	// A cap at or below capacity keeps a reclaimable slot available for every high priority request.
	if settings.HighPriorityCap < 1 || settings.HighPriorityCap > settings.Capacity {
		errs = append(errs, fmt.Sprintf("audio.highprioritycap must be between 1 and audio.capacity (%d), got %d",
			settings.Capacity, settings.HighPriorityCap))
	}

	policies := []string{PolicyOldest, PolicyNewest, PolicyLowestIndex}
	if !slices.Contains(policies, strings.ToLower(settings.EvictionPolicy)) {
		errs = append(errs, fmt.Sprintf("audio.evictionpolicy must be one of %v, got %q", policies, settings.EvictionPolicy))
	}

	if settings.StreamThreshold <= 0 {
		errs = append(errs, "audio.streamthreshold must be positive")
	}
	if settings.ChunkFrames <= 0 {
		errs = append(errs, "audio.chunkframes must be positive")
	}
	if settings.UpdateInterval <= 0 {
		errs = append(errs, "audio.updateinterval must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("audio settings errors: %v", errs)
	}
	return nil
}

func validateTelemetrySettings(settings *TelemetrySettings) error {
	if settings.Enabled && settings.DSN == "" {
		return fmt.Errorf("telemetry.dsn must be set when telemetry is enabled")
	}
	return nil
}

func validateMetricsSettings(settings *MetricsSettings) error {
	if !settings.Enabled {
		return nil
	}
	if _, _, err := net.SplitHostPort(settings.Listen); err != nil {
		return fmt.Errorf("metrics.listen %q is not a valid host:port: %w", settings.Listen, err)
	}
	return nil
}
