package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/kamilpajak/medguide/internal/places"
	"github.com/spf13/cobra"
)

var (
	near          string
	lat, lon      float64
	radius        int
	hospitalsJSON bool
)

var hospitalsCmd = &cobra.Command{
	Use:   "hospitals",
	Short: "List hospitals near a place or coordinates",
	Long: `List up to 10 hospitals near a place or coordinates, nearest first.

Examples:
  medguide hospitals --near "Kraków, Poland"
  medguide hospitals --lat 52.2297 --lon 21.0122 --radius 3000`,
	Args: cobra.NoArgs,
	RunE: runHospitals,
}

func init() {
	hospitalsCmd.Flags().StringVar(&near, "near", "", "Place name to search around")
	hospitalsCmd.Flags().Float64Var(&lat, "lat", 0, "Latitude")
	hospitalsCmd.Flags().Float64Var(&lon, "lon", 0, "Longitude")
	hospitalsCmd.Flags().IntVarP(&radius, "radius", "r", 0, "Search radius in meters (default from config)")
	hospitalsCmd.Flags().BoolVar(&hospitalsJSON, "json", false, "Output result as JSON")
	hospitalsCmd.MarkFlagsRequiredTogether("lat", "lon")
	hospitalsCmd.MarkFlagsMutuallyExclusive("near", "lat")
}

func runHospitals(cmd *cobra.Command, args []string) error {
	if near == "" && !cmd.Flags().Changed("lat") {
		return errors.New("use --near <place> or --lat and --lon")
	}

	a, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = a.logger.Sync() }()

	f := a.finder()
	ctx := context.Background()

	var (
		loc       *places.Location
		hospitals []places.Hospital
	)
	if near != "" {
		loc, hospitals, err = f.HospitalsNear(ctx, near, radius)
	} else {
		loc = &places.Location{Lat: lat, Lon: lon}
		hospitals, err = f.NearbyHospitals(ctx, lat, lon, radius)
	}
	if errors.Is(err, places.ErrNotFound) {
		return fmt.Errorf("no place matches %q", near)
	}
	if err != nil {
		return fmt.Errorf("hospital search failed: %w", err)
	}

	if hospitalsJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"location": loc, "hospitals": hospitals})
	}
	printHospitals(os.Stdout, loc, hospitals)
	return nil
}

func printHospitals(w io.Writer, loc *places.Location, hospitals []places.Hospital) {
	bold := color.New(color.Bold)
	dim := color.New(color.FgHiBlack)

	where := loc.DisplayName
	if where == "" {
		where = fmt.Sprintf("%.5f, %.5f", loc.Lat, loc.Lon)
	}
	_, _ = dim.Fprintf(w, "Near %s\n\n", where)

	if len(hospitals) == 0 {
		fmt.Fprintln(w, "No hospitals found. Try a larger --radius.")
		return
	}

	for i, h := range hospitals {
		_, _ = bold.Fprintf(w, "%d. %s", i+1, h.Name)
		_, _ = dim.Fprintf(w, "  %s\n", formatDistance(h.Distance))
		fmt.Fprintf(w, "   %s\n", h.Address)
		fmt.Fprintf(w, "   %s\n", h.Phone)
	}
}

func formatDistance(meters float64) string {
	if meters < 1000 {
		return fmt.Sprintf("%.0f m", meters)
	}
	return fmt.Sprintf("%.1f km", meters/1000)
}
