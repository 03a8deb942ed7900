package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jinterlante1206/chorus/internal/chorusconfig"
	"github.com/jinterlante1206/chorus/internal/obslog"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load and validate a config file without binding a port",
	RunE:  runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	path := resolveConfigPath()
	log := obslog.Default()

	loaded, err := chorusconfig.LoadFile(path, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	fmt.Printf("config OK: %d model(s), %d top-level worker(s)\n", len(loaded.Registry.Names()), len(loaded.Workflow.Workers))
	return nil
}
