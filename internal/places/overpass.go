package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/golang/geo/s2"
	"github.com/kamilpajak/medguide/internal/metrics"
	"go.uber.org/zap"
)

// earthRadiusMeters is the mean Earth radius.
const earthRadiusMeters = 6371008.8

type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

type overpassElement struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    float64           `json:"lat,omitempty"`
	Lon    float64           `json:"lon,omitempty"`
	Center *overpassCenter   `json:"center,omitempty"`
	Tags   map[string]string `json:"tags,omitempty"`
}

type overpassCenter struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func hospitalQuery(lat, lon float64, radius int) string {
	return fmt.Sprintf(`[out:json][timeout:25];
(
  node["amenity"="hospital"](around:%[1]d,%[2]f,%[3]f);
  way["amenity"="hospital"](around:%[1]d,%[2]f,%[3]f);
  relation["amenity"="hospital"](around:%[1]d,%[2]f,%[3]f);
);
out center;`, radius, lat, lon)
}

// NearbyHospitals returns up to MaxHospitals hospitals within radius meters
// of (lat, lon), nearest first. radius <= 0 uses the configured default.
func (f *Finder) NearbyHospitals(ctx context.Context, lat, lon float64, radius int) ([]Hospital, error) {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, fmt.Errorf("invalid coordinates: %f,%f", lat, lon)
	}
	if radius <= 0 {
		radius = f.radius
	}

	origin := s2.LatLngFromDegrees(lat, lon)
	key := cacheKey(origin, radius)
	if cached, ok := f.cache.get(key); ok {
		metrics.PlacesCacheHitsTotal.Inc()
		return rank(origin, cached), nil
	}

	form := url.Values{"data": {hospitalQuery(lat, lon, radius)}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.overpassURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create Overpass request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		metrics.PlacesRequestsTotal.WithLabelValues("overpass", "error").Inc()
		return nil, fmt.Errorf("failed to execute Overpass request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		metrics.PlacesRequestsTotal.WithLabelValues("overpass", "error").Inc()
		return nil, fmt.Errorf("Overpass returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var overpassResp overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&overpassResp); err != nil {
		metrics.PlacesRequestsTotal.WithLabelValues("overpass", "error").Inc()
		return nil, fmt.Errorf("failed to decode Overpass response: %w", err)
	}
	metrics.PlacesRequestsTotal.WithLabelValues("overpass", "ok").Inc()

	found := toHospitals(overpassResp.Elements)
	f.cache.put(key, found)

	f.logger.Debug("hospital search completed",
		zap.Int("elements", len(overpassResp.Elements)),
		zap.Int("hospitals", len(found)),
		zap.Int("radius", radius),
	)
	return rank(origin, found), nil
}

// toHospitals converts Overpass elements, dropping those without coordinates.
// Distances are left unset; see rank.
func toHospitals(elements []overpassElement) []Hospital {
	hospitals := make([]Hospital, 0, len(elements))
	for _, elem := range elements {
		lat, lon := elem.Lat, elem.Lon
		if lat == 0 && lon == 0 && elem.Center != nil {
			lat, lon = elem.Center.Lat, elem.Center.Lon
		}
		if lat == 0 && lon == 0 {
			continue
		}

		hospitals = append(hospitals, Hospital{
			Name:    tagOr(elem.Tags, "Unnamed Hospital", "name"),
			Lat:     lat,
			Lon:     lon,
			Address: address(elem.Tags),
			Phone:   tagOr(elem.Tags, "Phone not available", "phone", "contact:phone"),
		})
	}
	return hospitals
}

// rank returns a copy of hospitals with distances measured from origin,
// nearest first and capped at MaxHospitals.
func rank(origin s2.LatLng, found []Hospital) []Hospital {
	hospitals := make([]Hospital, len(found))
	copy(hospitals, found)
	for i := range hospitals {
		h := &hospitals[i]
		h.Distance = origin.Distance(s2.LatLngFromDegrees(h.Lat, h.Lon)).Radians() * earthRadiusMeters
	}

	sort.SliceStable(hospitals, func(i, j int) bool {
		return hospitals[i].Distance < hospitals[j].Distance
	})
	if len(hospitals) > MaxHospitals {
		hospitals = hospitals[:MaxHospitals]
	}
	return hospitals
}

func tagOr(tags map[string]string, def string, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(tags[k]); v != "" {
			return v
		}
	}
	return def
}

func address(tags map[string]string) string {
	if full := strings.TrimSpace(tags["addr:full"]); full != "" {
		return full
	}
	street := strings.TrimSpace(tags["addr:street"])
	if street == "" {
		return "Address not available"
	}
	parts := []string{street}
	if n := strings.TrimSpace(tags["addr:housenumber"]); n != "" {
		parts[0] = street + " " + n
	}
	if city := strings.TrimSpace(tags["addr:city"]); city != "" {
		parts = append(parts, city)
	}
	return strings.Join(parts, ", ")
}
