package redis

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/windycity/chirecs/internal/db"
)

// GeoAdd stores member at (lon, lat) in a geo set.
func (s *Store) GeoAdd(ctx context.Context, key string, lon, lat float64, member string) error {
	cmd := s.b().Geoadd().Key(key).LongitudeLatitudeMember().LongitudeLatitudeMember(lon, lat, member).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpGeoAdd, Err: err}
	}
	return nil
}

// GeoRemove removes members from a geo set. Geo sets are sorted sets, so this is ZREM.
func (s *Store) GeoRemove(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	cmd := s.b().Zrem().Key(key).Member(members...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpZRem, Err: err}
	}
	return nil
}

// GeoSearch runs GEOSEARCH FROMLONLAT BYRADIUS in meters, ascending by distance.
func (s *Store) GeoSearch(
	ctx context.Context, key string, lon, lat, radius float64, limit int,
) ([]db.GeoHit, error) {
	asc := s.b().Geosearch().Key(key).Fromlonlat(lon, lat).Byradius(radius).M().Asc()
	var cmd rueidis.Completed
	if limit > 0 {
		cmd = asc.Count(int64(limit)).Withdist().Build()
	} else {
		cmd = asc.Withdist().Build()
	}
	arr, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpGeoSearch, Err: err}
	}

	hits := make([]db.GeoHit, 0, len(arr))
	for i, item := range arr {
		pair, err := item.ToArray()
		if err != nil || len(pair) < 2 {
			return nil, &db.Error{Op: db.OpGeoSearch, Err: fmt.Errorf("unexpected reply at %d", i)}
		}
		member, err := pair[0].ToString()
		if err != nil {
			return nil, &db.Error{Op: db.OpGeoSearch, Err: fmt.Errorf("member at %d: %w", i, err)}
		}
		dist, err := pair[1].AsFloat64()
		if err != nil {
			return nil, &db.Error{Op: db.OpGeoSearch, Err: fmt.Errorf("distance at %d: %w", i, err)}
		}
		hits = append(hits, db.GeoHit{Member: member, Distance: dist})
	}
	return hits, nil
}
