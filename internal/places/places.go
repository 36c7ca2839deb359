// Package places finds hospitals near a location using OpenStreetMap
// services: Overpass for the hospitals themselves and Nominatim to turn a
// place name into coordinates. Both are best-effort lookups.
package places

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/kamilpajak/medguide/internal/config"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// MaxHospitals is the most hospitals returned by one search.
	MaxHospitals = 10
	// DefaultRadius is the search radius in meters when none is given.
	DefaultRadius = 5000

	defaultOverpassURL  = "https://overpass-api.de/api/interpreter"
	defaultNominatimURL = "https://nominatim.openstreetmap.org"
	defaultUserAgent    = "medguide/1.0"
	cacheTTL            = 10 * time.Minute
)

// ErrNotFound is returned when a place name cannot be geocoded.
var ErrNotFound = errors.New("place not found")

// Hospital is a hospital near the searched location.
type Hospital struct {
	Name     string  `json:"name" yaml:"name"`
	Lat      float64 `json:"lat" yaml:"lat"`
	Lon      float64 `json:"lon" yaml:"lon"`
	Address  string  `json:"address" yaml:"address"`
	Phone    string  `json:"phone" yaml:"phone"`
	Distance float64 `json:"distance_meters" yaml:"distance_meters"`
}

// Location is a geocoded place.
type Location struct {
	Lat         float64 `json:"lat" yaml:"lat"`
	Lon         float64 `json:"lon" yaml:"lon"`
	DisplayName string  `json:"display_name" yaml:"display_name"`
}

// Finder looks up hospitals and places.
type Finder struct {
	overpassURL  string
	nominatimURL string
	userAgent    string
	radius       int
	httpClient   *http.Client
	limiter      *rate.Limiter
	cache        *hospitalCache
	logger       *zap.Logger
}

// Option customizes a Finder.
type Option func(*Finder)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Finder) {
		if c != nil {
			f.httpClient = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(f *Finder) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithRateLimit overrides the Nominatim request rate (1 per second by
// default, as the public instance requires).
func WithRateLimit(r rate.Limit) Option {
	return func(f *Finder) {
		f.limiter = rate.NewLimiter(r, 1)
	}
}

// NewFinder creates a Finder.
func NewFinder(cfg config.PlacesConfig, opts ...Option) *Finder {
	f := &Finder{
		overpassURL:  orDefault(cfg.OverpassURL, defaultOverpassURL),
		nominatimURL: strings.TrimRight(orDefault(cfg.NominatimURL, defaultNominatimURL), "/"),
		userAgent:    orDefault(cfg.UserAgent, defaultUserAgent),
		radius:       cfg.Radius,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		limiter:      rate.NewLimiter(rate.Every(time.Second), 1),
		cache:        newHospitalCache(cacheTTL),
		logger:       zap.NewNop(),
	}
	if f.radius <= 0 {
		f.radius = DefaultRadius
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Radius returns the default search radius in meters.
func (f *Finder) Radius() int {
	return f.radius
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return strings.TrimSpace(v)
}
