package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/kamilpajak/medguide/internal/config"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the AI provider is configured",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		printStatus(os.Stdout, cfg.Status())
		return nil
	},
}

func printStatus(w io.Writer, st config.Status) {
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	fmt.Fprintf(w, "AI service: %s\n", st.Service)
	if st.HasAPIKey {
		_, _ = green.Fprint(w, "  ✓ ")
		fmt.Fprintln(w, "API key present")
	} else {
		_, _ = red.Fprint(w, "  ✗ ")
		fmt.Fprintln(w, "API key missing")
	}
	if st.Configured {
		_, _ = green.Fprint(w, "  ✓ ")
		fmt.Fprintln(w, "Ready")
		return
	}
	_, _ = red.Fprint(w, "  ✗ ")
	fmt.Fprintln(w, st.Error)
}
