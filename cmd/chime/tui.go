package main

import (
	"github.com/spf13/cobra"

	"github.com/jmylchreest/chime/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Browse and play sounds interactively",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	lib, err := openLibrary()
	if err != nil {
		return err
	}

	controller := newController(lib)
	defer controller.Close()

	return tui.New(cfg, lib, controller).Run()
}
