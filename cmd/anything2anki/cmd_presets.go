package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/slavadubrov/anything2anki/internal/prompt"
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List available prompt presets",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		for _, p := range prompt.Available() {
			marker := " "
			if p == prompt.DefaultPreset {
				marker = "*"
			}
			fmt.Fprintf(out, "%s %-12s %s\n", marker, p, prompt.Describe(p))
		}
		fmt.Fprintln(out, "\n* default")
	},
}
