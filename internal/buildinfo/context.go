// Package buildinfo carries build-time metadata separate from user configuration
package buildinfo

import "fmt"

// UnknownValue is reported for metadata the build did not inject
const UnknownValue = "unknown"

// Context holds build metadata. Version and BuildDate are injected with
// -ldflags "-X main.version=... -X main.buildDate=..." and passed down from main.
type Context struct {
	// Version holds the Git version tag from build
	Version string

	// BuildDate is the time when the binary was built
	BuildDate string

	// SystemID identifies this installation in telemetry, generated per process when empty
	SystemID string
}

// NewContext returns build metadata
func NewContext(version, buildDate, systemID string) *Context {
	return &Context{
		Version:   version,
		BuildDate: buildDate,
		SystemID:  systemID,
	}
}

// GetVersion returns the version or UnknownValue
func (c *Context) GetVersion() string {
	if c == nil || c.Version == "" {
		return UnknownValue
	}
	return c.Version
}

// GetBuildDate returns the build date or UnknownValue
func (c *Context) GetBuildDate() string {
	if c == nil || c.BuildDate == "" {
		return UnknownValue
	}
	return c.BuildDate
}

// GetSystemID returns the system identifier or UnknownValue
func (c *Context) GetSystemID() string {
	if c == nil || c.SystemID == "" {
		return UnknownValue
	}
	return c.SystemID
}

// Release is the release name reported to Sentry
func (c *Context) Release() string {
	return fmt.Sprintf("soundpool@%s", c.GetVersion())
}

// String renders the metadata for the version command
func (c *Context) String() string {
	return fmt.Sprintf("soundpool %s (built %s)", c.GetVersion(), c.GetBuildDate())
}
