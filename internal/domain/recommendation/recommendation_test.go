package recommendation

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/windycity/chirecs/internal/domain"
	"github.com/windycity/chirecs/internal/domain/category"
)

func TestNew_Valid(t *testing.T) {
	r, err := New(" Restaurant ", "  The Loop ", 41.8781, -87.6298, " Alinea ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Category() != category.Restaurant {
		t.Errorf("category = %q", r.Category())
	}
	if r.Neighborhood() != "The Loop" {
		t.Errorf("neighborhood = %q", r.Neighborhood())
	}
	if r.PlaceName() != "Alinea" {
		t.Errorf("place name = %q", r.PlaceName())
	}
	if r.ID() != 0 {
		t.Errorf("new recommendation should have no ID, got %d", r.ID())
	}
	if p := r.Point(); p.Lat != 41.8781 || p.Lon != -87.6298 {
		t.Errorf("point = %+v", p)
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		cat, hood string
		lat, lon  float64
		field     string
	}{
		{"unknown category", "pizza", "Loop", 41, -87, "placeType"},
		{"empty neighborhood", "bar", "   ", 41, -87, "locationName"},
		{"lat too high", "bar", "Loop", 90.1, -87, "lat"},
		{"lat too low", "bar", "Loop", -90.1, -87, "lat"},
		{"lon too high", "bar", "Loop", 41, 180.5, "lng"},
		{"lon too low", "bar", "Loop", 41, -180.5, "lng"},
		{"lat NaN", "cafe", "Ghost Town", math.NaN(), -87.6, "lat"},
		{"lon NaN", "cafe", "Ghost Town", 41.9, math.NaN(), "lng"},
		{"lat infinite", "cafe", "Ghost Town", math.Inf(-1), -87.6, "lat"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cat, tt.hood, tt.lat, tt.lon, "")
			if !errors.Is(err, domain.ErrInvalidRecommendation) {
				t.Fatalf("expected ErrInvalidRecommendation, got %v", err)
			}
			var fe *domain.FieldError
			if !errors.As(err, &fe) || fe.Field != tt.field {
				t.Errorf("expected field %q, got %v", tt.field, err)
			}
		})
	}
}

func TestNew_BoundaryCoordinates(t *testing.T) {
	if _, err := New("park", "Edge", 90, 180, ""); err != nil {
		t.Errorf("boundary coordinates should be accepted: %v", err)
	}
	if _, err := New("park", "Edge", -90, -180, ""); err != nil {
		t.Errorf("boundary coordinates should be accepted: %v", err)
	}
}

func TestSanitize_Truncates(t *testing.T) {
	long := strings.Repeat("é", 300)
	got := Sanitize("  " + long + "  ")
	if n := len([]rune(got)); n != MaxTextLength {
		t.Errorf("rune length = %d, want %d", n, MaxTextLength)
	}
	if Sanitize("  short ") != "short" {
		t.Error("expected trim")
	}
}

func TestDisplayName(t *testing.T) {
	r, _ := New("cafe", "Wicker Park", 41.9, -87.67, "")
	if r.DisplayName() != "Wicker Park" {
		t.Errorf("display name = %q", r.DisplayName())
	}
	named, _ := New("cafe", "Wicker Park", 41.9, -87.67, "Big Shoulders")
	if named.DisplayName() != "Big Shoulders" {
		t.Errorf("display name = %q", named.DisplayName())
	}
}

func TestReconstruct_UnknownNeighborhood(t *testing.T) {
	r := Reconstruct(7, category.Bar, "", 41, -87, "", time.Unix(100, 0))
	if r.NeighborhoodKey() != UnknownNeighborhood {
		t.Errorf("key = %q, want Unknown", r.NeighborhoodKey())
	}
	if r.ID() != 7 || !r.CreatedAt().Equal(time.Unix(100, 0)) {
		t.Errorf("unexpected identity: %d %v", r.ID(), r.CreatedAt())
	}
}

func TestWithID(t *testing.T) {
	r, _ := New("bar", "Loop", 41, -87, "")
	now := time.Now()
	saved := r.WithID(42, now)
	if saved.ID() != 42 || !saved.CreatedAt().Equal(now) {
		t.Errorf("unexpected identity: %d %v", saved.ID(), saved.CreatedAt())
	}
	if r.ID() != 0 {
		t.Error("WithID must not mutate the receiver")
	}
}
