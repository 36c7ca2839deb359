package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/kamilpajak/medguide/internal/metrics"
)

type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Geocode resolves a free-text place name to its best match.
func (f *Finder) Geocode(ctx context.Context, query string) (*Location, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrNotFound
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	params := url.Values{
		"format": {"json"},
		"q":      {query},
		"limit":  {"1"},
	}
	reqURL := f.nominatimURL + "/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Nominatim request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		metrics.PlacesRequestsTotal.WithLabelValues("nominatim", "error").Inc()
		return nil, fmt.Errorf("failed to execute Nominatim request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		metrics.PlacesRequestsTotal.WithLabelValues("nominatim", "error").Inc()
		return nil, fmt.Errorf("Nominatim returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		metrics.PlacesRequestsTotal.WithLabelValues("nominatim", "error").Inc()
		return nil, fmt.Errorf("failed to decode Nominatim response: %w", err)
	}
	metrics.PlacesRequestsTotal.WithLabelValues("nominatim", "ok").Inc()

	if len(results) == 0 {
		return nil, ErrNotFound
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid latitude %q: %w", results[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid longitude %q: %w", results[0].Lon, err)
	}

	return &Location{Lat: lat, Lon: lon, DisplayName: results[0].DisplayName}, nil
}

// HospitalsNear geocodes query and searches around the result.
func (f *Finder) HospitalsNear(ctx context.Context, query string, radius int) (*Location, []Hospital, error) {
	loc, err := f.Geocode(ctx, query)
	if err != nil {
		return nil, nil, err
	}
	hospitals, err := f.NearbyHospitals(ctx, loc.Lat, loc.Lon, radius)
	if err != nil {
		return loc, nil, err
	}
	return loc, hospitals, nil
}
