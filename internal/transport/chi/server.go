package chi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/windycity/chirecs/internal/domain"
	"github.com/windycity/chirecs/internal/domain/category"
	"github.com/windycity/chirecs/internal/domain/geo"
	"github.com/windycity/chirecs/internal/render"
	"github.com/windycity/chirecs/internal/transport/geojson"
	healthuc "github.com/windycity/chirecs/internal/usecase/health"
	hotuc "github.com/windycity/chirecs/internal/usecase/hotspot"
	recuc "github.com/windycity/chirecs/internal/usecase/recommendation"
)

const maxBodyBytes = 64 << 10

// Server holds the HTTP handlers of the recommendations API.
type Server struct {
	recommendations *recuc.Service
	hotspots        *hotuc.Service
	health          *healthuc.Service
	geojson         *geojson.Encoder
	renderOpts      render.Options
	logger          *zap.Logger
	errorHandlers   []errorHandler
	now             func() time.Time
}

// NewServer creates an HTTP API server.
func NewServer(
	recommendations *recuc.Service,
	hotspots *hotuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	return &Server{
		recommendations: recommendations,
		hotspots:        hotspots,
		health:          health,
		geojson:         geojson.NewEncoder(geojson.DefaultSegments),
		logger:          logger,
		errorHandlers:   defaultErrorHandlers(),
		now:             time.Now,
	}
}

// WithRenderOptions sets the defaults for the PNG endpoint.
func (s *Server) WithRenderOptions(opts render.Options) *Server {
	s.renderOpts = opts
	return s
}

// WithGeoJSONSegments sets how many vertices approximate each exported circle.
func (s *Server) WithGeoJSONSegments(n int) *Server {
	s.geojson = geojson.NewEncoder(n)
	return s
}

// CreateRecommendation handles POST /api/recommendations.
func (s *Server) CreateRecommendation(w http.ResponseWriter, r *http.Request) {
	var req createRecommendationRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := validateStruct(req, domain.ErrInvalidRecommendation); err != nil {
		s.handleDomainError(w, err)
		return
	}

	rec, err := s.recommendations.Create(r.Context(), req.toInput())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, createRecommendationResponse{
		Success: true,
		ID:      rec.ID(),
		Message: "Recommendation saved successfully",
	})
}

// ListRecommendations handles GET /api/recommendations.
func (s *Server) ListRecommendations(w http.ResponseWriter, r *http.Request) {
	cats, err := category.ParseList(r.URL.Query().Get("placeType"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	recs, err := s.recommendations.List(r.Context(), cats)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]recommendationResponse, len(recs))
	for i := range recs {
		items[i] = recommendationToResponse(&recs[i])
	}
	writeJSON(w, http.StatusOK, items)
}

// GetRecommendation handles GET /api/recommendations/{id}.
func (s *Server) GetRecommendation(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	rec, err := s.recommendations.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recommendationToResponse(&rec))
}

// DeleteRecommendation handles DELETE /api/recommendations/{id}.
func (s *Server) DeleteRecommendation(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	if err := s.recommendations.Delete(r.Context(), id); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// NearbyRecommendations handles GET /api/recommendations/nearby.
func (s *Server) NearbyRecommendations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params, err := parseNearby(q)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	cats, err := category.ParseList(q.Get("placeType"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	res, err := s.recommendations.Nearby(r.Context(), recuc.NearbyQuery{
		Point:      geo.Point{Lat: *params.Lat, Lon: *params.Lng},
		Radius:     params.Radius,
		Limit:      params.Limit,
		Categories: cats,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]nearbyResponse, len(res))
	for i := range res {
		items[i] = nearbyResponse{
			recommendationResponse: recommendationToResponse(&res[i].Recommendation),
			Distance:               res[i].Distance,
		}
	}
	writeJSON(w, http.StatusOK, items)
}

// Stats handles GET /api/stats.
func (s *Server) Stats(w http.ResponseWriter, r *http.Request) {
	counts, err := s.recommendations.Stats(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	rows := make([]statsRow, len(counts))
	for i, c := range counts {
		rows[i] = statsRow{PlaceType: string(c.Category), Label: c.Category.Label(), Count: c.Count}
	}
	writeJSON(w, http.StatusOK, rows)
}

// Seed handles POST /api/seed.
func (s *Server) Seed(w http.ResponseWriter, r *http.Request) {
	clearExisting := r.URL.Query().Get("clear") == "true"
	res, err := s.recommendations.Seed(r.Context(), clearExisting)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, seedResponse{
		Success:  true,
		Cleared:  res.Cleared,
		Inserted: res.Inserted,
		Errors:   res.Errors,
		Message:  fmt.Sprintf("Sample data seeded: %d recommendations added", res.Inserted),
	})
}

// Hotspots handles GET /api/hotspots.
func (s *Server) Hotspots(w http.ResponseWriter, r *http.Request) {
	cats, err := category.ParseList(r.URL.Query().Get("placeType"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	withShapes := r.URL.Query().Get("shapes") != "false"
	writeJSON(w, http.StatusOK, generationToResponse(s.hotspots.Clusters(cats), withShapes))
}

// HotspotLookup handles GET /api/hotspots/lookup.
func (s *Server) HotspotLookup(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params, err := parsePoint(q)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	cats, err := category.ParseList(q.Get("placeType"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	matches := s.hotspots.Lookup(geo.Point{Lat: *params.Lat, Lon: *params.Lng}, cats)
	writeJSON(w, http.StatusOK, matchesToResponse(matches))
}

// HotspotsGeoJSON handles GET /api/hotspots.geojson.
func (s *Server) HotspotsGeoJSON(w http.ResponseWriter, r *http.Request) {
	cats, err := category.ParseList(r.URL.Query().Get("placeType"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	fc := s.geojson.Encode(s.hotspots.Clusters(cats))
	body, err := fc.MarshalJSON()
	if err != nil {
		s.handleDomainError(w, fmt.Errorf("encode geojson: %w", err))
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// HotspotsPNG handles GET /api/hotspots.png.
func (s *Server) HotspotsPNG(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cats, err := category.ParseList(q.Get("placeType"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	opts := s.renderOpts
	width, err := intOr(q, "width")
	if err == nil && (width < 0 || width > render.MaxWidth) {
		err = fmt.Errorf("%w: width must be in [1, %d]", domain.ErrInvalidQuery, render.MaxWidth)
	}
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if width > 0 {
		opts.Width = width
	}

	var buf bytes.Buffer
	if err := render.New(opts).PNG(r.Context(), s.hotspots.Clusters(cats), &buf); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// HealthCheck handles GET /api/health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	database := "connected"
	if report.Checks["database"] != healthuc.CheckOK {
		database = "disconnected"
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status:    string(report.Status),
		Database:  database,
		Checks:    checks,
		Timestamp: s.now().UTC(),
	})
}

func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, codeBadRequest, "id must be a positive integer")
		return 0, false
	}
	return id, true
}

func parseNearby(q url.Values) (nearbyParams, error) {
	var (
		p   nearbyParams
		err error
	)
	if p.Lat, err = floatParam(q, "lat"); err != nil {
		return p, err
	}
	if p.Lng, err = floatParam(q, "lng"); err != nil {
		return p, err
	}
	if p.Radius, err = floatOr(q, "radius"); err != nil {
		return p, err
	}
	if p.Limit, err = intOr(q, "limit"); err != nil {
		return p, err
	}
	return p, validateStruct(p, domain.ErrInvalidQuery)
}

func parsePoint(q url.Values) (pointParams, error) {
	var (
		p   pointParams
		err error
	)
	if p.Lat, err = floatParam(q, "lat"); err != nil {
		return p, err
	}
	if p.Lng, err = floatParam(q, "lng"); err != nil {
		return p, err
	}
	return p, validateStruct(p, domain.ErrInvalidQuery)
}

// floatParam returns nil when the parameter is absent.
func floatParam(q url.Values, name string) (*float64, error) {
	raw := q.Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a number", domain.ErrInvalidQuery, name)
	}
	return &v, nil
}

func floatOr(q url.Values, name string) (float64, error) {
	v, err := floatParam(q, name)
	if err != nil || v == nil {
		return 0, err
	}
	return *v, nil
}

func intOr(q url.Values, name string) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidQuery, name)
	}
	return v, nil
}
