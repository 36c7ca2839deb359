package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/kamilpajak/medguide/internal/diagnosis"
	"github.com/kamilpajak/medguide/internal/llm"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	imagePaths     []string
	conditions     string
	diagnoseFormat string
)

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose <symptoms>...",
	Short: "Assess symptoms with the configured AI provider",
	Long: `Assess symptoms with the configured AI provider.

Symptoms may be given as separate arguments or as one comma-separated list.

Examples:
  medguide diagnose "headache, dizziness"
  medguide diagnose rash itching --image arm.jpg --conditions "eczema"
  medguide diagnose "sore throat" --format json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDiagnose,
}

func init() {
	diagnoseCmd.Flags().StringArrayVarP(&imagePaths, "image", "i", nil, "Photo of the affected area (repeatable, up to 3)")
	diagnoseCmd.Flags().StringVarP(&conditions, "conditions", "c", "", "Existing medical conditions")
	diagnoseCmd.Flags().StringVarP(&diagnoseFormat, "format", "f", "text", "Output format (text, json, yaml)")
}

// report is the machine-readable form of one assessment.
type report struct {
	Result     *diagnosis.Result    `json:"result" yaml:"result"`
	Assessment diagnosis.Assessment `json:"assessment" yaml:"assessment"`
	Steps      []string             `json:"steps,omitempty" yaml:"steps,omitempty"`
}

func newReport(r *diagnosis.Result) report {
	a := diagnosis.Evaluate(r)
	rep := report{Result: r, Assessment: a}
	if !a.Insufficient {
		rep.Steps = a.Steps(diagnosis.DefaultSteps)
	}
	return rep
}

func runDiagnose(cmd *cobra.Command, args []string) error {
	switch diagnoseFormat {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("unsupported format %q, use text, json or yaml", diagnoseFormat)
	}

	images, err := loadImages(imagePaths)
	if err != nil {
		return err
	}
	req, err := diagnosis.NewRequest(args, images, conditions)
	if err != nil {
		return err
	}

	a, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = a.logger.Sync() }()

	svc := a.diagnosisService()

	var s *spinner.Spinner
	if diagnoseFormat == "text" && isatty.IsTerminal(os.Stderr.Fd()) {
		s = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
		s.Suffix = " Analyzing symptoms..."
		s.Start()
	}
	result := svc.Diagnose(context.Background(), req)
	if s != nil {
		s.Stop()
	}

	return writeReport(os.Stdout, diagnoseFormat, result)
}

func loadImages(paths []string) ([]llm.Image, error) {
	if len(paths) > llm.MaxImages {
		return nil, fmt.Errorf("at most %d images are allowed", llm.MaxImages)
	}
	images := make([]llm.Image, 0, len(paths))
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("image not found: %s", p)
		}
		if info.Size() > llm.MaxImageBytes {
			return nil, fmt.Errorf("%s is larger than 10MB", p)
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read image %s: %w", p, err)
		}
		images = append(images, llm.Image{Data: data, Name: filepath.Base(p)})
	}
	return images, nil
}

func writeReport(w io.Writer, format string, r *diagnosis.Result) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(newReport(r))
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(newReport(r)); err != nil {
			return err
		}
		return enc.Close()
	default:
		printResult(w, r)
		return nil
	}
}

func printResult(w io.Writer, r *diagnosis.Result) {
	rep := newReport(r)
	bold := color.New(color.Bold)
	dim := color.New(color.FgHiBlack)

	if rep.Assessment.Insufficient {
		yellow := color.New(color.FgYellow, color.Bold)
		_, _ = yellow.Fprintln(w, "More information needed")
		fmt.Fprintln(w, "We could not reach a confident assessment from what you described.")
		fmt.Fprintln(w, "Try again and include:")
		for _, hint := range diagnosis.InsufficientHints {
			fmt.Fprintf(w, "  • %s\n", hint)
		}
		fmt.Fprintln(w)
		_, _ = dim.Fprintln(w, "Informational only. See a doctor if symptoms are severe or getting worse.")
		return
	}

	top := rep.Assessment.Top
	_, _ = bold.Fprint(w, top.Name)
	fmt.Fprint(w, "  ")
	_, _ = urgencyColor(top.Urgency).Fprintf(w, "[%s]\n", strings.ToUpper(string(top.Urgency)))
	printConfidenceBar(w, top.Confidence)
	if top.Description != "" {
		fmt.Fprintln(w, top.Description)
	}
	if top.VisualAnalysis != "" {
		_, _ = dim.Fprintln(w, top.VisualAnalysis)
	}
	fmt.Fprintln(w)

	_, _ = bold.Fprintln(w, "NEXT STEPS")
	for i, step := range rep.Steps {
		fmt.Fprintf(w, "%d. %s\n", i+1, step)
	}
	fmt.Fprintln(w)

	if len(rep.Assessment.Others) > 0 {
		_, _ = bold.Fprintln(w, "OTHER POSSIBILITIES")
		for _, c := range rep.Assessment.Others {
			fmt.Fprintf(w, "  %-32s %3.0f%%  ", c.Name, c.Confidence*100)
			_, _ = urgencyColor(c.Urgency).Fprintln(w, c.Urgency)
		}
		fmt.Fprintln(w)
	}

	if r.VisualFindings != "" {
		_, _ = bold.Fprintln(w, "VISUAL FINDINGS")
		fmt.Fprintln(w, r.VisualFindings)
		fmt.Fprintln(w)
	}
	if r.GeneralAdvice != "" {
		_, _ = bold.Fprintln(w, "ADVICE")
		fmt.Fprintln(w, r.GeneralAdvice)
		fmt.Fprintln(w)
	}
	if r.WhenToSeekHelp != "" {
		_, _ = bold.Fprintln(w, "WHEN TO SEEK HELP")
		fmt.Fprintln(w, r.WhenToSeekHelp)
		fmt.Fprintln(w)
	}
	if r.Disclaimer != "" {
		_, _ = dim.Fprintln(w, r.Disclaimer)
	}
}

func urgencyColor(u diagnosis.Urgency) *color.Color {
	switch u {
	case diagnosis.UrgencyHigh:
		return color.New(color.FgRed, color.Bold)
	case diagnosis.UrgencyMedium:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgGreen)
	}
}

func printConfidenceBar(w io.Writer, confidence float64) {
	const barWidth = 24
	pct := int(confidence*100 + 0.5)
	filled := pct * barWidth / 100
	if filled > barWidth {
		filled = barWidth
	}

	var barColor *color.Color
	switch {
	case pct >= 70:
		barColor = color.New(color.FgGreen)
	case pct >= 35:
		barColor = color.New(color.FgYellow)
	default:
		barColor = color.New(color.FgRed)
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	fmt.Fprintf(w, "Confidence: %d%% ", pct)
	_, _ = barColor.Fprintln(w, bar)
}
