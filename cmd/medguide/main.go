// Command medguide runs symptom assessments and hospital lookups from the
// terminal, or serves the same features over HTTP.
package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/kamilpajak/medguide/internal/config"
	"github.com/kamilpajak/medguide/internal/diagnosis"
	"github.com/kamilpajak/medguide/internal/llm"
	"github.com/kamilpajak/medguide/internal/logging"
	"github.com/kamilpajak/medguide/internal/metrics"
	"github.com/kamilpajak/medguide/internal/places"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "medguide",
	Short: "AI-assisted symptom assessment",
	Long: `MedGuide asks an AI provider for possible conditions matching your symptoms
and finds hospitals nearby.

Results are informational only and never a substitute for a doctor.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("medguide %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(diagnoseCmd)
	rootCmd.AddCommand(hospitalsCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if rootCmd.Execute() != nil {
		os.Exit(1)
	}
}

type app struct {
	cfg    *config.Config
	logger *zap.Logger
}

func setup() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, err
	}
	metrics.Register()
	return &app{cfg: cfg, logger: logger}, nil
}

func (a *app) diagnosisService() *diagnosis.Service {
	return diagnosis.FromConfig(a.cfg, a.logger, llm.WithHTTPClient(&http.Client{Timeout: a.cfg.AI.Timeout}))
}

func (a *app) finder() *places.Finder {
	return places.NewFinder(a.cfg.Places, places.WithLogger(a.logger))
}
