package simulate

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tphakala/soundpool/internal/conf"
	"github.com/tphakala/soundpool/internal/player"
)

// Command creates the simulate command, which drives the pool on the
// simulated device with a scripted mix of requests.
func Command(settings *conf.Settings) *cobra.Command {
	opts := player.SimulationOptions{}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Exercise the source pool on a simulated device",
		Long: `Issue a reproducible mix of low and high priority play requests against a
pool backed by the simulated device and print how slots were allocated.
The configured capacity, high priority cap and eviction policy apply.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			audio := settings.Audio
			audio.Backend = conf.BackendSim
			audio.Device = ""

			p, err := player.Open(&audio, player.Options{})
			if err != nil {
				return err
			}
			defer func() { _ = p.Close() }()

			report, err := p.Simulate(opts)
			if err != nil {
				return err
			}
			return printReport(cmd.OutOrStdout(), &audio, report)
		},
	}

	cmd.Flags().IntVarP(&opts.Requests, "requests", "n", player.DefaultSimulationRequests, "Number of play requests")
	cmd.Flags().Float64Var(&opts.HighRatio, "high-ratio", player.DefaultSimulationHighRatio, "Fraction of requests asking for high priority")
	cmd.Flags().DurationVar(&opts.Step, "step", player.DefaultSimulationStep, "Simulated time between requests")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 1, "Seed of the request mix")

	return cmd
}

func printReport(out io.Writer, audio *conf.AudioSettings, r player.SimulationReport) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	rows := []struct {
		label string
		value any
	}{
		{"capacity", r.Stats.Capacity},
		{"high priority cap", r.Stats.HighPriorityCap},
		{"eviction policy", audio.EvictionPolicy},
		{"requests", r.Requests},
		{"played", r.Played},
		{"rejected", r.Rejected},
		{"downgraded", r.Downgraded},
		{"free slot allocations", r.Stats.Created - r.Stats.Evicted - r.Stats.Reclaimed},
		{"reclaimed", r.Stats.Reclaimed},
		{"evicted", r.Stats.Evicted},
		{"finished", r.Stats.Finished},
		{"simulated time", r.Elapsed},
	}
	for _, row := range rows {
		fmt.Fprintf(w, "%s\t%v\n", row.label, row.value)
	}
	return w.Flush()
}
