package web

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/kamilpajak/medguide/internal/places"
	"go.uber.org/zap"
)

type hospitalsResponse struct {
	Location  *places.Location  `json:"location"`
	Hospitals []places.Hospital `json:"hospitals"`
}

// handleHospitals searches around ?lat=&lon= or around the geocoded ?q=.
func (h *Handler) handleHospitals(w http.ResponseWriter, r *http.Request) {
	if h.places == nil {
		writeError(w, http.StatusServiceUnavailable, "hospital search is not available")
		return
	}

	query := r.URL.Query()
	radius := 0
	if v := query.Get("radius"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "radius must be a positive integer")
			return
		}
		radius = n
	}

	var loc *places.Location
	switch {
	case query.Get("lat") != "" || query.Get("lon") != "":
		lat, errLat := strconv.ParseFloat(query.Get("lat"), 64)
		lon, errLon := strconv.ParseFloat(query.Get("lon"), 64)
		if errLat != nil || errLon != nil || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			writeError(w, http.StatusBadRequest, "lat and lon must be valid coordinates")
			return
		}
		loc = &places.Location{Lat: lat, Lon: lon}
	case strings.TrimSpace(query.Get("q")) != "":
		var err error
		loc, err = h.places.Geocode(r.Context(), query.Get("q"))
		if err != nil {
			h.placesError(w, "geocode", err)
			return
		}
	default:
		writeError(w, http.StatusBadRequest, "provide lat and lon, or q")
		return
	}

	hospitals, err := h.places.NearbyHospitals(r.Context(), loc.Lat, loc.Lon, radius)
	if err != nil {
		h.placesError(w, "hospitals", err)
		return
	}
	if hospitals == nil {
		hospitals = []places.Hospital{}
	}

	writeJSON(w, http.StatusOK, hospitalsResponse{Location: loc, Hospitals: hospitals})
}

func (h *Handler) handleGeocode(w http.ResponseWriter, r *http.Request) {
	if h.places == nil {
		writeError(w, http.StatusServiceUnavailable, "geocoding is not available")
		return
	}

	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}

	loc, err := h.places.Geocode(r.Context(), q)
	if err != nil {
		h.placesError(w, "geocode", err)
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

func (h *Handler) placesError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, places.ErrNotFound) {
		writeError(w, http.StatusNotFound, "location not found")
		return
	}
	h.logger.Warn("Places lookup failed", zap.String("op", op), zap.Error(err))
	writeError(w, http.StatusBadGateway, "location service unavailable")
}
