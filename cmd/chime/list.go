package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/chime/internal/dbus"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List sounds known to the library",
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	lib, err := openLibrary()
	if err != nil {
		return err
	}

	// Mark sounds a running daemon is playing
	playing := make(map[string]string)
	if client, err := dbus.NewClient(cfg.Daemon.BusName); err == nil && client.Available() {
		if active, err := client.ListActive(); err == nil {
			for _, a := range active {
				state := "playing"
				if a.Paused {
					state = "paused"
				} else if a.Looping {
					state = "looping"
				}
				playing[a.Name] = state
			}
		}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSIZE\tMODIFIED\tSTATE\tPATH")
	for _, entry := range lib.Entries() {
		size := "-"
		modified := "-"
		if entry.Size > 0 {
			size = humanize.Bytes(uint64(entry.Size))
			modified = humanize.Time(entry.ModTime)
		}
		state := playing[entry.Name]
		if state == "" {
			state = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", entry.Name, size, modified, state, entry.Path)
	}
	return w.Flush()
}
