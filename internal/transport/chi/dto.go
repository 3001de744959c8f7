package chi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/windycity/chirecs/internal/domain/category"
	domhot "github.com/windycity/chirecs/internal/domain/hotspot"
	domrec "github.com/windycity/chirecs/internal/domain/recommendation"
	recuc "github.com/windycity/chirecs/internal/usecase/recommendation"
)

// number accepts both JSON numbers and numeric strings.
type number float64

func (n *number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		b = []byte(strings.TrimSpace(s))
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("not a number: %q", string(b))
	}
	*n = number(v)
	return nil
}

type createRecommendationRequest struct {
	PlaceType    string  `json:"placeType" validate:"required"`
	LocationName string  `json:"locationName" validate:"required"`
	Latitude     *number `json:"latitude" validate:"required,latitude"`
	Longitude    *number `json:"longitude" validate:"required,longitude"`
	PlaceName    *string `json:"placeName"`
}

func (r createRecommendationRequest) toInput() recuc.Input {
	in := recuc.Input{
		PlaceType:    r.PlaceType,
		LocationName: r.LocationName,
		Lat:          float64(*r.Latitude),
		Lng:          float64(*r.Longitude),
	}
	if r.PlaceName != nil {
		in.PlaceName = *r.PlaceName
	}
	return in
}

type createRecommendationResponse struct {
	Success bool   `json:"success"`
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

type recommendationResponse struct {
	ID           int64     `json:"id"`
	PlaceType    string    `json:"place_type"`
	LocationName string    `json:"location_name"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	PlaceName    *string   `json:"place_name"`
	CreatedAt    time.Time `json:"created_at"`
}

func recommendationToResponse(r *domrec.Recommendation) recommendationResponse {
	resp := recommendationResponse{
		ID:           r.ID(),
		PlaceType:    string(r.Category()),
		LocationName: r.Neighborhood(),
		Latitude:     r.Lat(),
		Longitude:    r.Lon(),
		CreatedAt:    r.CreatedAt().UTC(),
	}
	if name := r.PlaceName(); name != "" {
		resp.PlaceName = &name
	}
	return resp
}

type nearbyResponse struct {
	recommendationResponse
	Distance float64 `json:"distance"`
}

type nearbyParams struct {
	Lat    *float64 `query:"lat" validate:"required,latitude"`
	Lng    *float64 `query:"lng" validate:"required,longitude"`
	Radius float64  `query:"radius" validate:"gte=0,lte=50000"`
	Limit  int      `query:"limit" validate:"gte=0,lte=500"`
}

type pointParams struct {
	Lat *float64 `query:"lat" validate:"required,latitude"`
	Lng *float64 `query:"lng" validate:"required,longitude"`
}

type statsRow struct {
	PlaceType string `json:"place_type"`
	Label     string `json:"label"`
	Count     int64  `json:"count"`
}

type seedResponse struct {
	Success  bool   `json:"success"`
	Cleared  int    `json:"cleared"`
	Inserted int    `json:"inserted"`
	Errors   int    `json:"errors"`
	Message  string `json:"message"`
}

type healthResponse struct {
	Status    string            `json:"status"`
	Database  string            `json:"database"`
	Checks    map[string]string `json:"checks"`
	Timestamp time.Time         `json:"timestamp"`
}

type clusterResponse struct {
	Neighborhood string   `json:"neighborhood"`
	Count        int      `json:"count"`
	Lat          float64  `json:"lat"`
	Lng          float64  `json:"lng"`
	Scale        float64  `json:"scale"`
	Radius       float64  `json:"radius"`
	Places       []string `json:"places"`
}

func clusterToResponse(c *domhot.Cluster) clusterResponse {
	places := make([]string, 0, len(c.Members))
	for i := range c.Members {
		places = append(places, c.Members[i].DisplayName())
	}
	return clusterResponse{
		Neighborhood: c.Neighborhood,
		Count:        c.Count(),
		Lat:          c.Centroid.Lat,
		Lng:          c.Centroid.Lon,
		Scale:        c.Scale,
		Radius:       c.Radius,
		Places:       places,
	}
}

type shapeResponse struct {
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
	Radius       float64 `json:"radius"`
	Color        string  `json:"color"`
	Opacity      float64 `json:"opacity"`
	ZIndex       int     `json:"zIndex"`
	Interactive  bool    `json:"interactive"`
	Neighborhood string  `json:"neighborhood"`
}

type categoryHotspots struct {
	Category string            `json:"category"`
	Label    string            `json:"label"`
	Color    string            `json:"color"`
	Clusters []clusterResponse `json:"clusters"`
	Shapes   []shapeResponse   `json:"shapes,omitempty"`
}

type hotspotsResponse struct {
	Generation           uint64             `json:"generation"`
	BuiltAt              time.Time          `json:"builtAt"`
	TotalRecommendations int                `json:"totalRecommendations"`
	Categories           []categoryHotspots `json:"categories"`
}

func generationToResponse(g *domhot.Generation, withShapes bool) hotspotsResponse {
	resp := hotspotsResponse{
		Generation:           g.Seq,
		BuiltAt:              g.BuiltAt.UTC(),
		TotalRecommendations: g.RecordCount(),
		Categories:           make([]categoryHotspots, 0, len(g.Clusters)),
	}
	byCat := make(map[category.Category]*categoryHotspots)
	for _, cat := range g.Categories() {
		ch := categoryHotspots{
			Category: string(cat),
			Label:    cat.Label(),
			Color:    cat.Color(),
			Clusters: make([]clusterResponse, 0, len(g.Clusters[cat])),
		}
		for _, c := range g.Clusters[cat] {
			ch.Clusters = append(ch.Clusters, clusterToResponse(c))
		}
		resp.Categories = append(resp.Categories, ch)
	}
	for i := range resp.Categories {
		byCat[category.Category(resp.Categories[i].Category)] = &resp.Categories[i]
	}
	if withShapes {
		for _, s := range g.Shapes {
			ch, ok := byCat[s.Category]
			if !ok {
				continue
			}
			ch.Shapes = append(ch.Shapes, shapeResponse{
				Lat:          s.Center.Lat,
				Lng:          s.Center.Lon,
				Radius:       s.Radius,
				Color:        s.Color,
				Opacity:      s.Opacity,
				ZIndex:       s.ZIndex,
				Interactive:  s.Interactive,
				Neighborhood: s.Neighborhood,
			})
		}
	}
	return resp
}

type lookupMatch struct {
	Category string            `json:"category"`
	Label    string            `json:"label"`
	Clusters []clusterResponse `json:"clusters"`
}

func matchesToResponse(m domhot.Matches) map[string]lookupMatch {
	out := make(map[string]lookupMatch, len(m))
	for cat, match := range m {
		lm := lookupMatch{
			Category: string(cat),
			Label:    cat.Label(),
			Clusters: make([]clusterResponse, 0, len(match.Clusters)),
		}
		for _, c := range match.Clusters {
			lm.Clusters = append(lm.Clusters, clusterToResponse(c))
		}
		out[string(cat)] = lm
	}
	return out
}
