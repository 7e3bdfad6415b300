// conf/consts.go
package conf

// Default values shared by viper defaults and DefaultSettings.
const (
	DefaultBackend         = "openal"
	DefaultCapacity        = 32
	DefaultHighPriorityCap = 15
	DefaultEvictionPolicy  = "oldest"
	DefaultStreamThreshold = 4 << 20 // 4 MiB
	DefaultChunkFrames     = 16384
	DefaultUpdateInterval  = 20 // milliseconds
	DefaultMetricsListen   = "127.0.0.1:9090"
	DefaultLogPath         = "logs/soundpool.log"

	// MaxCapacity is far above what any OpenAL implementation exposes.
	MaxCapacity = 256
)

// Backend names accepted by audio.backend.
const (
	BackendOpenAL = "openal"
	BackendSim    = "sim"
)

// Eviction tie-break policy names accepted by audio.evictionpolicy.
const (
	PolicyOldest      = "oldest"
	PolicyNewest      = "newest"
	PolicyLowestIndex = "lowest-index"
)
