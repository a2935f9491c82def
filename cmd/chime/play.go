package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/chime/internal/dbus"
	"github.com/jmylchreest/chime/internal/sound"
)

var playOpts struct {
	volume int
	repeat int
	loop   bool
	fadeIn time.Duration
	noWait bool
	direct bool
}

var playCmd = &cobra.Command{
	Use:   "play <name>",
	Short: "Play a named sound",
	Long: `Play a sound by name.

The name is resolved against the configured sound directories and
manifest; a file path works too. When a chimed daemon owns the bus
name, playback is delegated to it so the sound can be stopped or
faded later with 'chime stop'.`,
	Args: cobra.ExactArgs(1),
}

func init() {
	playCmd.RunE = runPlay
	playCmd.Flags().IntVar(&playOpts.volume, "volume", -1,
		"Playback volume in percent (default: sound or config default)")
	playCmd.Flags().IntVar(&playOpts.repeat, "repeat", 0,
		"Additional plays after the first")
	playCmd.Flags().BoolVar(&playOpts.loop, "loop", false,
		"Loop until stopped")
	playCmd.Flags().DurationVar(&playOpts.fadeIn, "fade-in", 0,
		"Fade in over this duration (e.g. 250ms)")
	playCmd.Flags().BoolVar(&playOpts.noWait, "no-wait", false,
		"Return immediately instead of waiting for playback to finish")
	playCmd.Flags().BoolVar(&playOpts.direct, "direct", false,
		"Play in-process even if a daemon is running")
	rootCmd.AddCommand(playCmd)
}

// playGain converts the --volume percent flag to a linear gain,
// preserving the "use default" sentinel.
func playGain() float64 {
	if playOpts.volume < 0 {
		return -1
	}
	v := playOpts.volume
	if v > 100 {
		v = 100
	}
	return float64(v) / 100.0
}

// playRepeat converts the --loop and --repeat flags to a repeat count,
// preserving the "use default" sentinel when neither was given.
func playRepeat() int {
	if playOpts.loop {
		return sound.RepeatForever
	}
	if !playCmd.Flags().Changed("repeat") {
		return sound.RepeatDefault
	}
	return playOpts.repeat
}

func runPlay(cmd *cobra.Command, args []string) error {
	name := args[0]
	fadeIn := playOpts.fadeIn
	if fadeIn == 0 {
		fadeIn = cfg.Playback.FadeIn.Duration()
	}

	if !playOpts.direct {
		if client, err := dbus.NewClient(cfg.Daemon.BusName); err == nil && client.Available() {
			return playViaDaemon(client, name, fadeIn)
		}
		logger.Debug("no daemon available, playing in-process")
	}

	return playDirect(name, fadeIn)
}

// playViaDaemon delegates playback to a running chimed.
func playViaDaemon(client *dbus.Client, name string, fadeIn time.Duration) error {
	handle, err := client.Play(name, playGain(), playRepeat(), fadeIn)
	if err != nil {
		return err
	}
	logger.Debug("sound started on daemon", "name", name, "handle", handle)

	if playOpts.noWait || playOpts.loop {
		fmt.Println(handle)
		return nil
	}
	return client.WaitForFinished(handle, 0)
}

// playDirect plays in-process and blocks until the sound finishes or the
// process is interrupted.
func playDirect(name string, fadeIn time.Duration) error {
	lib, err := openLibrary()
	if err != nil {
		return err
	}
	controller := newController(lib)
	defer controller.Close()

	done := make(chan struct{}, 1)
	controller.SetFinishedHandler(func(string, sound.Handle) {
		select {
		case done <- struct{}{}:
		default:
		}
	})

	opts := sound.DefaultPlayOptions()
	opts.Volume = playGain()
	opts.Repeat = playRepeat()
	opts.FadeIn = fadeIn

	if _, err := controller.Play(name, opts); err != nil {
		return err
	}

	if playOpts.noWait {
		// Nothing outlives this process; flag only makes sense with a daemon
		logger.Warn("--no-wait has no effect without a running chimed")
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	select {
	case <-done:
	case <-interrupt:
		controller.StopAll(cfg.Playback.FadeOut.Duration())
	}
	return nil
}
