package recommendation

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/windycity/chirecs/internal/domain/category"
	domrec "github.com/windycity/chirecs/internal/domain/recommendation"
)

// Hash field names.
const (
	fieldCategory     = "category"
	fieldNeighborhood = "location_name"
	fieldLat          = "lat"
	fieldLon          = "lng"
	fieldPlaceName    = "place_name"
	fieldCreatedAt    = "created_at"
)

var errCorrupt = errors.New("corrupt record")

// buildHashFields converts a domain Recommendation into a flat map for HSET.
func buildHashFields(rec *domrec.Recommendation) map[string]string {
	return map[string]string{
		fieldCategory:     string(rec.Category()),
		fieldNeighborhood: rec.Neighborhood(),
		fieldLat:          strconv.FormatFloat(rec.Lat(), 'f', -1, 64),
		fieldLon:          strconv.FormatFloat(rec.Lon(), 'f', -1, 64),
		fieldPlaceName:    rec.PlaceName(),
		fieldCreatedAt:    strconv.FormatInt(rec.CreatedAt().UnixMilli(), 10),
	}
}

// parseHashFields converts a hash back into a Recommendation without revalidation.
// Unparseable coordinates make the record corrupt.
func parseHashFields(id int64, m map[string]string) (domrec.Recommendation, error) {
	lat, err := strconv.ParseFloat(m[fieldLat], 64)
	if err != nil {
		return domrec.Recommendation{}, fmt.Errorf("%w: id %d lat %q", errCorrupt, id, m[fieldLat])
	}
	lon, err := strconv.ParseFloat(m[fieldLon], 64)
	if err != nil {
		return domrec.Recommendation{}, fmt.Errorf("%w: id %d lng %q", errCorrupt, id, m[fieldLon])
	}

	var createdAt time.Time
	if ms, err := strconv.ParseInt(m[fieldCreatedAt], 10, 64); err == nil {
		createdAt = time.UnixMilli(ms).UTC()
	}

	return domrec.Reconstruct(
		id,
		category.Category(m[fieldCategory]),
		m[fieldNeighborhood],
		lat, lon,
		m[fieldPlaceName],
		createdAt,
	), nil
}
