package player

import (
	"encoding/binary"
	"math"
	"math/rand/v2"
	"time"

	"github.com/tphakala/soundpool/internal/audiocore"
	"github.com/tphakala/soundpool/internal/audiocore/decode"
	"github.com/tphakala/soundpool/internal/errors"
)

// Simulation defaults
const (
	DefaultSimulationRequests  = 200
	DefaultSimulationHighRatio = 0.2
	DefaultSimulationStep      = 50 * time.Millisecond

	simulationSampleRate = 8000
)

// simulationTones are the synthetic assets requests pick from
var simulationTones = []struct {
	name      string
	frequency float64
	duration  time.Duration
}{
	{"blip", 880, 250 * time.Millisecond},
	{"chime", 440, time.Second},
	{"drone", 110, 3 * time.Second},
}

// SimulationOptions scripts a simulated load.
type SimulationOptions struct {
	// Requests is the number of play requests to issue
	Requests int
	// HighRatio is the fraction of requests asking for high priority
	HighRatio float64
	// Step is the simulated time between two requests
	Step time.Duration
	// Seed makes the request mix reproducible
	Seed uint64
}

// SimulationReport summarizes a simulated load.
type SimulationReport struct {
	Requests int
	Played   int
	Rejected int
	// Downgraded counts high priority requests issued as low priority
	// because the high priority budget was spent
	Downgraded int
	Elapsed    time.Duration
	Stats      audiocore.PoolStats
}

// Simulate issues a scripted mix of low and high priority requests against
// the pool and drains it afterwards. It requires a simulated device.
func (p *Player) Simulate(opts SimulationOptions) (report SimulationReport, err error) {
	if p.clock == nil {
		return report, errors.Newf("simulation requires the sim backend").
			Component(ComponentPlayer).
			Category(errors.CategoryValidation).
			Context("backend", p.settings.Backend).
			Build()
	}
	if opts.Requests <= 0 {
		opts.Requests = DefaultSimulationRequests
	}
	if opts.Step <= 0 {
		opts.Step = DefaultSimulationStep
	}
	opts.HighRatio = math.Min(math.Max(opts.HighRatio, 0), 1)

	names, err := p.loadTones()
	if err != nil {
		return report, err
	}
	defer recoverViolation(&err)

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	report.Requests = opts.Requests

	for range opts.Requests {
		p.Advance(opts.Step)
		report.Elapsed += opts.Step
		p.pool.Update()

		priority := audiocore.PriorityLow
		if rng.Float64() < opts.HighRatio {
			if p.pool.Stats().ActiveHigh < p.pool.HighPriorityCap() {
				priority = audiocore.PriorityHigh
			} else {
				report.Downgraded++
			}
		}

		buf, _ := p.bank.Get(names[rng.IntN(len(names))])
		position := audiocore.Vec3{
			X: rng.Float32()*20 - 10,
			Y: 0,
			Z: rng.Float32()*20 - 10,
		}
		if _, err := p.pool.PlaySound(buf, position, audiocore.Vec3{}, false, priority); err != nil {
			if errors.Is(err, audiocore.ErrNoSlotAvailable) {
				report.Rejected++
				continue
			}
			return report, err
		}
		report.Played++
	}

	for p.pool.Stats().Active > 0 {
		p.Advance(opts.Step)
		report.Elapsed += opts.Step
		p.pool.Update()
	}

	report.Stats = p.pool.Stats()
	p.logger.Info("simulation finished",
		"requests", report.Requests,
		"played", report.Played,
		"rejected", report.Rejected,
		"downgraded", report.Downgraded,
		"evicted", report.Stats.Evicted,
		"reclaimed", report.Stats.Reclaimed)
	return report, nil
}

// loadTones adds the synthetic assets to the bank once
func (p *Player) loadTones() ([]string, error) {
	names := make([]string, 0, len(simulationTones))
	for _, tone := range simulationTones {
		names = append(names, tone.name)
		if _, ok := p.bank.Get(tone.name); ok {
			continue
		}
		if _, err := p.bank.Add(tone.name, Tone(tone.frequency, tone.duration, simulationSampleRate)); err != nil {
			return nil, err
		}
	}
	return names, nil
}

// Tone returns a mono 16-bit sine wave
func Tone(frequency float64, duration time.Duration, sampleRate int) *decode.PCM {
	frames := int(duration.Seconds() * float64(sampleRate))
	data := make([]byte, frames*2)
	for i := range frames {
		v := math.Sin(2 * math.Pi * frequency * float64(i) / float64(sampleRate))
		binary.LittleEndian.PutUint16(data[i*2:], uint16(int16(v*math.MaxInt16*0.5)))
	}
	return &decode.PCM{
		Data:       data,
		Channels:   1,
		BitDepth:   16,
		SampleRate: sampleRate,
	}
}
