package errors

import (
	"testing"
)

// slotLimit mirrors how the sound pool declares its budget sentinels
var slotLimit = New(nil).
	Component("audiocore").
	Category(CategoryLimit).
	Context("resource", "high_priority_budget").
	Build()

// buildViolation builds the error a contract violation panics with
func buildViolation(cause error) *EnhancedError {
	return New(cause).
		Component("audiocore").
		Priority(PriorityCritical).
		Context("operation", "play_sound").
		Context("context_id", "6f1c2d3e-0000-4000-8000-000000000000").
		Context("active_high", 15).
		Context("high_priority_cap", 15).
		Build()
}

// BenchmarkViolationInheritedCategory measures the fatal path of the pool with
// the category taken from the wrapped sentinel
func BenchmarkViolationInheritedCategory(b *testing.B) {
	SetTelemetryReporter(nil)
	ClearErrorHooks()

	b.ReportAllocs()

	for b.Loop() {
		ee := buildViolation(slotLimit)
		if ee.Category != CategoryLimit {
			b.Fatalf("category = %s", ee.Category)
		}
	}
}

// BenchmarkViolationDeviceError measures a per-frame device failure turned
// into a violation
func BenchmarkViolationDeviceError(b *testing.B) {
	SetTelemetryReporter(nil)
	ClearErrorHooks()

	deviceErr := NewStd("openal: invalid value")
	b.ReportAllocs()

	for b.Loop() {
		_ = New(deviceErr).
			Component("audiocore").
			Category(CategoryAudioDevice).
			Priority(PriorityCritical).
			Context("operation", "update").
			Context("slot", 7).
			Build()
	}
}

// BenchmarkRecoveredViolationMatching measures the checks a caller runs on a
// recovered violation
func BenchmarkRecoveredViolationMatching(b *testing.B) {
	SetTelemetryReporter(nil)
	ClearErrorHooks()

	var err error = buildViolation(slotLimit)
	b.ReportAllocs()

	for b.Loop() {
		if !Is(err, slotLimit) || !IsCategory(err, CategoryLimit) {
			b.Fatal("violation lost its sentinel")
		}
	}
}

// BenchmarkDecodeFileError measures the error a failed asset decode returns
func BenchmarkDecodeFileError(b *testing.B) {
	SetTelemetryReporter(nil)
	ClearErrorHooks()

	parseErr := NewStd("invalid WAV file format")
	b.ReportAllocs()

	for b.Loop() {
		_ = New(parseErr).
			Component("decode").
			Category(CategoryFileParsing).
			FileContext("/home/user/sounds/explosion.wav", 48_000).
			Build()
	}
}

// mockReporter is a telemetry reporter that only scrubs the message
type mockReporter struct {
	enabled bool
}

func (m *mockReporter) IsEnabled() bool {
	return m.enabled
}

func (m *mockReporter) ReportError(err *EnhancedError) {
	_ = scrubMessageForPrivacy(err.Error())
}

// BenchmarkViolationWithTelemetry measures the fatal path while Sentry
// reporting is active
func BenchmarkViolationWithTelemetry(b *testing.B) {
	SetTelemetryReporter(&mockReporter{enabled: true})
	b.Cleanup(func() { SetTelemetryReporter(nil) })

	b.ReportAllocs()

	for b.Loop() {
		_ = buildViolation(slotLimit)
	}
}

// BenchmarkPrivacyScrubbing measures scrubbing of a message with a file path
func BenchmarkPrivacyScrubbing(b *testing.B) {
	testMessage := "failed to decode /home/alice/sounds/footstep.ogg reported to https://key@o1.ingest.sentry.io/7?env=dev"

	b.ReportAllocs()

	for b.Loop() {
		_ = basicScrub(testMessage)
	}
}
