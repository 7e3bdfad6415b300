package devices

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tphakala/soundpool/internal/audiocore/sources/malgo"
)

// maxConcurrentProbes bounds how many devices are opened at the same time
const maxConcurrentProbes = 4

// Command creates the devices command, which lists playback devices.
func Command() *cobra.Command {
	var hardwareOnly, probe bool

	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List playback devices",
		Long:  "List the playback devices the system offers. Names listed here are accepted by --device.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			devices, err := malgo.EnumeratePlaybackDevices()
			if err != nil {
				return err
			}
			if hardwareOnly {
				devices = malgo.HardwareDevices(devices)
			}

			var results []error
			if probe {
				results = probeAll(devices)
			}
			return printDevices(cmd.OutOrStdout(), devices, results)
		},
	}

	cmd.Flags().BoolVar(&hardwareOnly, "hardware", false, "Only list hardware devices")
	cmd.Flags().BoolVar(&probe, "probe", false, "Open and start every listed device to check it works")

	return cmd
}

// probeAll probes devices concurrently and returns one result per device
func probeAll(devices []malgo.PlaybackDevice) []error {
	results := make([]error, len(devices))

	var g errgroup.Group
	g.SetLimit(maxConcurrentProbes)
	for i, d := range devices {
		g.Go(func() error {
			// Probe failures are reported per device, not as a command failure
			results[i] = malgo.ProbeDevice(d.Name)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// printDevices writes the device table. results is nil when no probe ran.
func printDevices(out io.Writer, devices []malgo.PlaybackDevice, results []error) error {
	if len(devices) == 0 {
		_, err := fmt.Fprintln(out, "no playback devices found")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	header := "INDEX\tNAME\tDEFAULT\tID"
	if results != nil {
		header += "\tPROBE"
	}
	fmt.Fprintln(w, header)

	for i, d := range devices {
		def := ""
		if d.IsDefault {
			def = "*"
		}
		line := fmt.Sprintf("%d\t%s\t%s\t%s", d.Index, d.Name, def, d.ID)
		if results != nil {
			line += "\t" + probeStatus(results[i])
		}
		fmt.Fprintln(w, line)
	}
	return w.Flush()
}

func probeStatus(err error) string {
	if err != nil {
		return "failed: " + err.Error()
	}
	return "ok"
}
