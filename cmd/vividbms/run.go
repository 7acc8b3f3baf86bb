package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatgtr/vivid-building-management-systems-sub006/internal/scheduling"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate today's work orders once and print the run summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer closeApp(a)

		summary, err := a.Runner.Run(cmd.Context())
		if err != nil {
			return err
		}
		return printSummary(cmd.OutOrStdout(), summary)
	},
}

func printSummary(w io.Writer, summary *scheduling.Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	return nil
}
