package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/chime/internal/dbus"
)

var stopOpts struct {
	all  bool
	fade time.Duration
}

var stopCmd = &cobra.Command{
	Use:   "stop [name]",
	Short: "Stop a managed sound on the running daemon",
	Long: `Stop a sound that chimed is playing, optionally fading it out.

Requires a running chimed; sounds played in-process by 'chime play'
end with that process.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStop,
}

func init() {
	stopCmd.Flags().BoolVar(&stopOpts.all, "all", false,
		"Stop every managed sound")
	stopCmd.Flags().DurationVar(&stopOpts.fade, "fade", 0,
		"Fade out over this duration (e.g. 500ms)")
	rootCmd.AddCommand(stopCmd)
}

func runStop(cmd *cobra.Command, args []string) error {
	client, err := dbus.NewClient(cfg.Daemon.BusName)
	if err != nil {
		return err
	}
	if !client.Available() {
		return fmt.Errorf("no running chimed on bus name %s", cfg.Daemon.BusName)
	}

	fade := stopOpts.fade
	if fade == 0 {
		fade = cfg.Playback.FadeOut.Duration()
	}

	if stopOpts.all {
		return client.StopAll(fade)
	}
	if len(args) == 0 {
		return fmt.Errorf("a sound name is required unless --all is given")
	}
	return client.Stop(args[0], fade)
}
