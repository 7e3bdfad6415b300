package play

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tphakala/soundpool/internal/audiocore"
	"github.com/tphakala/soundpool/internal/conf"
	"github.com/tphakala/soundpool/internal/player"
)

// options holds the flags of the play command
type options struct {
	priority string
	loop     bool
	position []float32
	duration time.Duration
}

// Command creates the play command, which plays audio files through the pool.
func Command(settings *conf.Settings) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "play <file>...",
		Short: "Play audio files",
		Long: `Decode the given WAV, MP3, Ogg Vorbis or FLAC files and play them at once through
the source pool. The command returns when every sound has finished, after
--duration, or on interrupt.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd.OutOrStdout(), settings, opts, args)
		},
	}

	setupFlags(cmd, opts)

	return cmd
}

// setupFlags configures flags specific to the play command.
func setupFlags(cmd *cobra.Command, opts *options) {
	cmd.Flags().StringVarP(&opts.priority, "priority", "p", "low", "Sound priority: low or high")
	cmd.Flags().BoolVar(&opts.loop, "loop", false, "Loop sounds until interrupted")
	cmd.Flags().Float32SliceVar(&opts.position, "pos", []float32{0, 0, 0}, "Source position as x,y,z")
	cmd.Flags().DurationVar(&opts.duration, "duration", 0, "Stop playback after this long, 0 to wait for the sounds")
}

func run(ctx context.Context, out io.Writer, settings *conf.Settings, opts *options, files []string) error {
	priority, err := audiocore.ParsePriority(opts.priority)
	if err != nil {
		return err
	}
	if len(opts.position) != 3 {
		return fmt.Errorf("--pos needs three values, got %d", len(opts.position))
	}
	if priority == audiocore.PriorityHigh && len(files) > settings.Audio.HighPriorityCap {
		return fmt.Errorf("%d high priority sounds exceed the high priority cap of %d",
			len(files), settings.Audio.HighPriorityCap)
	}
	position := audiocore.Vec3{X: opts.position[0], Y: opts.position[1], Z: opts.position[2]}

	p, err := player.Open(&settings.Audio, player.Options{})
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	handles := make([]audiocore.Handle, 0, len(files))
	for _, file := range files {
		name, err := p.Load(file)
		if err != nil {
			return err
		}
		h, err := p.Play(name, position, opts.loop, priority)
		if err != nil {
			return fmt.Errorf("playing %s: %w", name, err)
		}
		buf, _ := p.Bank().Get(name)
		fmt.Fprintf(out, "playing %s (%s, %s) on slot %s\n", name, buf.Duration().Round(time.Millisecond), priority, h)
		handles = append(handles, h)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if opts.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.duration)
		defer cancel()
	}

	interval := time.Duration(settings.Audio.UpdateInterval) * time.Millisecond
	if err := p.Wait(ctx, handles, interval); err != nil && ctx.Err() == nil {
		return err
	}

	stats := p.Pool().Stats()
	fmt.Fprintf(out, "finished %d, evicted %d, rejected %d\n", stats.Finished, stats.Evicted, stats.Rejected)
	return nil
}
