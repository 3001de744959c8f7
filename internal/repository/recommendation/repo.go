package recommendation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/windycity/chirecs/internal/db"
	"github.com/windycity/chirecs/internal/domain"
	"github.com/windycity/chirecs/internal/domain/category"
	"github.com/windycity/chirecs/internal/domain/geo"
	domrec "github.com/windycity/chirecs/internal/domain/recommendation"
)

// store is the consumer interface for recommendations (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, keys ...string) error
	Incr(ctx context.Context, key string) (int64, error)
	SAdd(ctx context.Context, key string, members ...string) error
	SRem(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
	SCard(ctx context.Context, key string) (int64, error)
	GeoAdd(ctx context.Context, key string, lon, lat float64, member string) error
	GeoRemove(ctx context.Context, key string, members ...string) error
	GeoSearch(ctx context.Context, key string, lon, lat, radius float64, limit int) ([]db.GeoHit, error)
}

// Repo implements usecase/recommendation.Repository.
//
// Layout under prefix:
//
//	rec:seq             INCR counter for ids
//	rec:<id>            hash with the record fields
//	idx:all             set of every id
//	idx:cat:<category>  set of ids per category
//	geo:<category>      geo set of ids per category
type Repo struct {
	store  store
	prefix string
	now    func() time.Time
}

// New creates a recommendation repository. An empty prefix uses domain.DefaultKeyPrefix.
func New(s store, prefix string) *Repo {
	if prefix == "" {
		prefix = domain.DefaultKeyPrefix
	}
	return &Repo{store: s, prefix: prefix, now: time.Now}
}

// Create assigns an id and creation time, then persists the record and its indexes.
// A failed write rolls back the writes before it. Records beyond the geo index
// latitude limit are stored but not geo-indexed, so Nearby never returns them.
func (r *Repo) Create(ctx context.Context, rec *domrec.Recommendation) (domrec.Recommendation, error) {
	id, err := r.store.Incr(ctx, r.seqKey())
	if err != nil {
		return domrec.Recommendation{}, fmt.Errorf("next id: %w", err)
	}
	saved := rec.WithID(id, r.now().UTC())
	member := strconv.FormatInt(id, 10)
	cat := string(saved.Category())

	var undo rollback
	fail := func(err error) (domrec.Recommendation, error) {
		return domrec.Recommendation{}, errors.Join(err, undo.run(ctx))
	}

	if err := r.store.HSet(ctx, r.recKey(id), buildHashFields(&saved)); err != nil {
		return fail(fmt.Errorf("hset %d: %w", id, err))
	}
	undo.push(func(ctx context.Context) error { return r.store.Del(ctx, r.recKey(id)) })

	if err := r.store.SAdd(ctx, r.allKey(), member); err != nil {
		return fail(fmt.Errorf("index all %d: %w", id, err))
	}
	undo.push(func(ctx context.Context) error { return r.store.SRem(ctx, r.allKey(), member) })

	if err := r.store.SAdd(ctx, r.catKey(cat), member); err != nil {
		return fail(fmt.Errorf("index category %d: %w", id, err))
	}
	undo.push(func(ctx context.Context) error { return r.store.SRem(ctx, r.catKey(cat), member) })

	if geoIndexable(saved.Lat()) {
		if err := r.store.GeoAdd(ctx, r.geoKey(cat), saved.Lon(), saved.Lat(), member); err != nil {
			return fail(fmt.Errorf("index geo %d: %w", id, err))
		}
	}
	return saved, nil
}

// Get returns a recommendation by id.
func (r *Repo) Get(ctx context.Context, id int64) (domrec.Recommendation, error) {
	m, err := r.store.HGetAll(ctx, r.recKey(id))
	if err != nil {
		return domrec.Recommendation{}, fmt.Errorf("hgetall %d: %w", id, err)
	}
	if len(m) == 0 {
		return domrec.Recommendation{}, domain.ErrNotFound
	}
	rec, err := parseHashFields(id, m)
	if err != nil {
		return domrec.Recommendation{}, fmt.Errorf("parse %d: %w", id, err)
	}
	return rec, nil
}

// List returns recommendations newest first. An empty filter lists every category.
func (r *Repo) List(ctx context.Context, cats []category.Category) ([]domrec.Recommendation, error) {
	ids, err := r.ids(ctx, cats)
	if err != nil {
		return nil, err
	}
	recs, err := r.load(ctx, ids)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i].CreatedAt(), recs[j].CreatedAt()
		if !a.Equal(b) {
			return a.After(b)
		}
		return recs[i].ID() > recs[j].ID()
	})
	return recs, nil
}

// Delete removes a recommendation and its index entries. Indexes go first and
// the hash last; a failed step restores the index entries already removed.
func (r *Repo) Delete(ctx context.Context, id int64) error {
	rec, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	member := strconv.FormatInt(id, 10)
	cat := string(rec.Category())

	var undo rollback
	fail := func(err error) error { return errors.Join(err, undo.run(ctx)) }

	if err := r.store.SRem(ctx, r.allKey(), member); err != nil {
		return fail(fmt.Errorf("unindex all %d: %w", id, err))
	}
	undo.push(func(ctx context.Context) error { return r.store.SAdd(ctx, r.allKey(), member) })

	if err := r.store.SRem(ctx, r.catKey(cat), member); err != nil {
		return fail(fmt.Errorf("unindex category %d: %w", id, err))
	}
	undo.push(func(ctx context.Context) error { return r.store.SAdd(ctx, r.catKey(cat), member) })

	if err := r.store.GeoRemove(ctx, r.geoKey(cat), member); err != nil {
		return fail(fmt.Errorf("unindex geo %d: %w", id, err))
	}
	if geoIndexable(rec.Lat()) {
		undo.push(func(ctx context.Context) error {
			return r.store.GeoAdd(ctx, r.geoKey(cat), rec.Lon(), rec.Lat(), member)
		})
	}

	if err := r.store.Del(ctx, r.recKey(id)); err != nil {
		return fail(fmt.Errorf("del %d: %w", id, err))
	}
	return nil
}

// DeleteAll removes every recommendation and index key. Returns how many records existed.
// The id sequence is left in place so ids are never reused.
func (r *Repo) DeleteAll(ctx context.Context) (int, error) {
	members, err := r.store.SMembers(ctx, r.allKey())
	if err != nil {
		return 0, fmt.Errorf("smembers all: %w", err)
	}

	keys := make([]string, 0, len(members)+1+2*len(category.All()))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		keys = append(keys, r.recKey(id))
	}
	keys = append(keys, r.allKey())
	for _, c := range category.All() {
		keys = append(keys, r.catKey(string(c)), r.geoKey(string(c)))
	}

	if err := r.store.Del(ctx, keys...); err != nil {
		return 0, fmt.Errorf("del all: %w", err)
	}
	return len(members), nil
}

// CountByCategory returns the number of recommendations per category, omitting zeros.
func (r *Repo) CountByCategory(ctx context.Context) (map[category.Category]int64, error) {
	out := make(map[category.Category]int64)
	for _, c := range category.All() {
		n, err := r.store.SCard(ctx, r.catKey(string(c)))
		if err != nil {
			return nil, fmt.Errorf("scard %s: %w", c, err)
		}
		if n > 0 {
			out[c] = n
		}
	}
	return out, nil
}

// Nearby returns recommendations within radius meters of p, nearest first.
// An empty filter searches every category.
func (r *Repo) Nearby(
	ctx context.Context, cats []category.Category, p geo.Point, radius float64, limit int,
) ([]domrec.Nearby, error) {
	if len(cats) == 0 {
		cats = category.All()
	}

	var hits []db.GeoHit
	for _, c := range cats {
		h, err := r.store.GeoSearch(ctx, r.geoKey(string(c)), p.Lon, p.Lat, radius, limit)
		if err != nil {
			return nil, fmt.Errorf("geosearch %s: %w", c, err)
		}
		hits = append(hits, h...)
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}

	ids := make([]int64, 0, len(hits))
	dist := make(map[int64]float64, len(hits))
	for _, h := range hits {
		id, err := strconv.ParseInt(h.Member, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
		dist[id] = h.Distance
	}

	recs, err := r.load(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]domrec.Nearby, len(recs))
	for i := range recs {
		out[i] = domrec.Nearby{Recommendation: recs[i], Distance: dist[recs[i].ID()]}
	}
	return out, nil
}

func (r *Repo) ids(ctx context.Context, cats []category.Category) ([]int64, error) {
	setKeys := []string{r.allKey()}
	if len(cats) > 0 {
		setKeys = setKeys[:0]
		for _, c := range cats {
			setKeys = append(setKeys, r.catKey(string(c)))
		}
	}

	var ids []int64
	for _, k := range setKeys {
		members, err := r.store.SMembers(ctx, k)
		if err != nil {
			return nil, fmt.Errorf("smembers %s: %w", k, err)
		}
		for _, m := range members {
			id, err := strconv.ParseInt(m, 10, 64)
			if err != nil {
				continue
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// load fetches records in one round-trip, preserving the order of ids.
// Ids whose hash has disappeared are skipped.
func (r *Repo) load(ctx context.Context, ids []int64) ([]domrec.Recommendation, error) {
	if len(ids) == 0 {
		return []domrec.Recommendation{}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.recKey(id)
	}
	maps, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load %d records: %w", len(ids), err)
	}

	out := make([]domrec.Recommendation, 0, len(ids))
	for i, m := range maps {
		if len(m) == 0 {
			continue
		}
		rec, err := parseHashFields(ids[i], m)
		if err != nil {
			if errors.Is(err, errCorrupt) {
				continue
			}
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// rollback collects compensating writes, run newest first. They run on a
// context detached from cancellation so an aborted request still cleans up.
type rollback []func(ctx context.Context) error

func (u *rollback) push(fn func(ctx context.Context) error) { *u = append(*u, fn) }

func (u rollback) run(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)
	var errs []error
	for i := len(u) - 1; i >= 0; i-- {
		if err := u[i](ctx); err != nil {
			errs = append(errs, fmt.Errorf("rollback: %w", err))
		}
	}
	return errors.Join(errs...)
}

func geoIndexable(lat float64) bool {
	return lat >= -db.GeoMaxLatitude && lat <= db.GeoMaxLatitude
}

func (r *Repo) seqKey() string { return r.prefix + "rec:seq" }
func (r *Repo) allKey() string { return r.prefix + "idx:all" }

func (r *Repo) recKey(id int64) string {
	return fmt.Sprintf("%srec:%d", r.prefix, id)
}

func (r *Repo) catKey(cat string) string { return r.prefix + "idx:cat:" + cat }
func (r *Repo) geoKey(cat string) string { return r.prefix + "geo:" + cat }
