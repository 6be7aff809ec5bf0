// Idolstats - Idol Social Media Analytics Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/idolstats

package orchestrator

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/idolstats/internal/client"
	"github.com/tomtom215/idolstats/internal/config"
	"github.com/tomtom215/idolstats/internal/logging"
	"github.com/tomtom215/idolstats/internal/models"
	"github.com/tomtom215/idolstats/internal/ranking"
)

// State is the loading state of the current selection.
type State int

const (
	Idle State = iota
	QuickLoading
	QuickLoaded
	FullLoading
	FullLoaded
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case QuickLoading:
		return "quick_loading"
	case QuickLoaded:
		return "quick_loaded"
	case FullLoading:
		return "full_loading"
	case FullLoaded:
		return "full_loaded"
	default:
		return "unknown"
	}
}

// View is what the renderer shows: the selected month compared against its
// base month.
type View struct {
	Generation uint64
	State      State
	Gender     string
	Platform   string
	Month      string
	BaseMonth  string
	Months     []string
	Records    []models.MetricRecord
}

// Ranked returns the ranked table for the view.
func (v View) Ranked(search string) []ranking.Entry {
	return ranking.Rank(v.Records, v.Month, v.BaseMonth, search)
}

// Renderer displays views and load failures.
type Renderer interface {
	Render(v View)
	RenderError(err error)
}

// Store is the persistent cache used by the orchestrator.
type Store interface {
	GetMonthIndex(ctx context.Context, gender, platform string) ([]string, bool, error)
	SaveMonthIndex(ctx context.Context, gender, platform string, months []string) error
	GetMonthData(ctx context.Context, gender, platform, month string) ([]models.MetricRecord, bool, error)
	SaveMonthData(ctx context.Context, gender, platform, month string, records []models.MetricRecord) error
	GetMetadata(ctx context.Context, name, gender string) (models.IdolMetadata, bool, error)
	SaveMetadata(ctx context.Context, meta models.IdolMetadata, gender string) error
}

// Orchestrator coordinates the API, the persistent cache and the renderer.
// Network and storage calls run outside the mutex.
type Orchestrator struct {
	api     client.API
	store   Store
	render  Renderer
	cfg     config.ClientConfig
	limiter *rate.Limiter

	mu         sync.Mutex
	gender     string
	platform   string
	generation uint64
	state      State
	months     []string
	month      string
	working    map[string][]models.MetricRecord

	metadata       map[string]models.IdolMetadata
	metadataLoaded map[string]bool

	// fullLoadingGen is the generation of the in-flight full load. A flag
	// left by an older generation does not block the current one.
	fullLoading        bool
	fullLoadingGen     uint64
	topMetadataLoading bool
	metadataLoading    bool
	neighborLoading    bool

	wg sync.WaitGroup
}

// New creates an orchestrator with the default selection (남자, 웨이보).
func New(api client.API, store Store, render Renderer, cfg config.ClientConfig) *Orchestrator {
	limit := rate.Inf
	if cfg.PrefetchInterval > 0 {
		limit = rate.Every(cfg.PrefetchInterval)
	}
	if cfg.QuickLimit < 1 {
		cfg.QuickLimit = 10
	}
	return &Orchestrator{
		api:            api,
		store:          store,
		render:         render,
		cfg:            cfg,
		limiter:        rate.NewLimiter(limit, 1),
		gender:         models.GenderMale,
		platform:       models.PlatformWeibo,
		working:        make(map[string][]models.MetricRecord),
		metadata:       make(map[string]models.IdolMetadata),
		metadataLoaded: make(map[string]bool),
	}
}

// SetSelection switches to another (gender, platform) pair. A change resets
// the working set and invalidates in-flight loads.
func (o *Orchestrator) SetSelection(gender, platform string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if gender == o.gender && platform == o.platform {
		return
	}
	o.gender, o.platform = gender, platform
	o.generation++
	o.state = Idle
	o.fullLoading = false
	o.months = nil
	o.month = ""
	o.working = make(map[string][]models.MetricRecord)
}

// State returns the current loading state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Generation returns the selection generation.
func (o *Orchestrator) Generation() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.generation
}

// Snapshot returns the current view.
func (o *Orchestrator) Snapshot() View {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.viewLocked()
}

// Loaded reports whether month and its base month are both in the working
// set, so that HandleMonthChange would render without a fetch.
func (o *Orchestrator) Loaded(month string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	base := ranking.BaseMonth(month, o.months)
	return len(o.working[month]) > 0 && len(o.working[base]) > 0
}

// Wait blocks until all background work has finished.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

func (o *Orchestrator) goBackground(fn func()) {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		fn()
	}()
}

// Load runs the quick load for the current selection and schedules the
// full load.
func (o *Orchestrator) Load(ctx context.Context) error {
	o.mu.Lock()
	gen := o.generation
	gender, platform := o.gender, o.platform
	o.state = QuickLoading
	o.mu.Unlock()

	logger := logging.Ctx(ctx).With().Str("component", "orchestrator").Str("gender", gender).Str("platform", platform).Logger()

	if o.loadFromStore(ctx, gen, gender, platform) {
		logger.Debug().Msg("Quick load served from persistent cache")
		o.goBackground(func() {
			if sleepCtx(ctx, o.cfg.FullLoadDelay) != nil {
				return
			}
			o.fullLoad(ctx, gen)
		})
		return nil
	}

	resp, err := o.api.Data(ctx, client.DataQuery{
		Gender:      gender,
		Platform:    platform,
		Init:        true,
		SortByCount: true,
		Limit:       o.cfg.QuickLimit,
	})
	if err != nil {
		o.fail(gen, QuickLoading, Idle, err)
		return err
	}

	if err := o.store.SaveMonthIndex(ctx, gender, platform, resp.Meta.AllMonths); err != nil {
		logger.Warn().Err(err).Msg("Failed to persist month index")
	}

	o.mu.Lock()
	if gen != o.generation {
		o.mu.Unlock()
		return nil
	}
	o.months = resp.Meta.AllMonths
	o.replaceLocked(bucketByMonth(resp.Data))
	o.month = ""
	if n := len(o.months); n > 0 {
		o.month = o.months[n-1]
	}
	o.state = QuickLoaded
	view := o.viewLocked()
	o.mu.Unlock()

	logger.Debug().Int("returned", resp.Meta.Returned).Int("total", resp.Meta.Total).Msg("Quick view loaded")
	o.render.Render(view)
	o.goBackground(func() { o.prefetchTopMetadata(ctx, view) })
	o.goBackground(func() { o.fullLoad(ctx, gen) })
	return nil
}

// loadFromStore populates the working set from the persistent cache. It
// reports false when the index or the newest month is missing.
func (o *Orchestrator) loadFromStore(ctx context.Context, gen uint64, gender, platform string) bool {
	months, ok, err := o.store.GetMonthIndex(ctx, gender, platform)
	if err != nil || !ok || len(months) == 0 {
		return false
	}
	latest := months[len(months)-1]
	latestData, ok, err := o.store.GetMonthData(ctx, gender, platform, latest)
	if err != nil || !ok || len(latestData) == 0 {
		return false
	}

	buckets := map[string][]models.MetricRecord{latest: latestData}
	if len(months) > 1 {
		prev := months[len(months)-2]
		if prevData, ok, err := o.store.GetMonthData(ctx, gender, platform, prev); err == nil && ok {
			buckets[prev] = prevData
		}
	}

	o.mu.Lock()
	if gen != o.generation {
		o.mu.Unlock()
		return true
	}
	o.months = months
	o.replaceLocked(buckets)
	o.month = latest
	o.state = QuickLoaded
	view := o.viewLocked()
	o.mu.Unlock()

	o.render.Render(view)
	o.goBackground(func() { o.prefetchTopMetadata(ctx, view) })
	return true
}

// FullLoad fetches the newest two months in full for the current
// selection. A call while a full load for the same selection is in flight
// is a no-op.
func (o *Orchestrator) FullLoad(ctx context.Context) {
	o.fullLoad(ctx, o.Generation())
}

func (o *Orchestrator) fullLoad(ctx context.Context, gen uint64) {
	o.mu.Lock()
	if (o.fullLoading && o.fullLoadingGen == gen) || gen != o.generation {
		o.mu.Unlock()
		return
	}
	o.fullLoading = true
	o.fullLoadingGen = gen
	prevState := o.state
	o.state = FullLoading
	gender, platform := o.gender, o.platform
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		if o.fullLoadingGen == gen {
			o.fullLoading = false
		}
		o.mu.Unlock()
	}()

	resp, err := o.api.Data(ctx, client.DataQuery{Gender: gender, Platform: platform, Init: true})
	if err != nil {
		o.fail(gen, FullLoading, prevState, err)
		return
	}

	buckets := bucketByMonth(resp.Data)

	o.mu.Lock()
	if gen != o.generation {
		o.mu.Unlock()
		return
	}
	if len(resp.Meta.AllMonths) > 0 {
		o.months = resp.Meta.AllMonths
	}
	if o.month == "" && len(o.months) > 0 {
		o.month = o.months[len(o.months)-1]
	}
	o.replaceLocked(buckets)
	o.state = FullLoaded
	view := o.viewLocked()
	o.mu.Unlock()

	logging.Ctx(ctx).Debug().Str("component", "orchestrator").Int("records", len(resp.Data)).Msg("Full data loaded")

	o.persist(ctx, gender, platform, buckets)
	if len(resp.Meta.AllMonths) > 0 {
		if err := o.store.SaveMonthIndex(ctx, gender, platform, resp.Meta.AllMonths); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("Failed to persist month index")
		}
	}

	if view.Month != "" {
		o.render.Render(view)
	}
	o.goBackground(func() { o.PrefetchMetadata(ctx) })
	o.goBackground(func() {
		if err := o.PrefetchNeighbors(ctx); err != nil {
			logging.Ctx(ctx).Debug().Err(err).Msg("Neighbor prefetch stopped")
		}
	})
}

// HandleMonthChange selects month. It renders from the working set when
// the month and its base month are both loaded, and fetches otherwise.
func (o *Orchestrator) HandleMonthChange(ctx context.Context, month string) error {
	o.mu.Lock()
	gen := o.generation
	gender, platform := o.gender, o.platform
	o.month = month
	base := ranking.BaseMonth(month, o.months)
	if len(o.working[month]) > 0 && len(o.working[base]) > 0 {
		view := o.viewLocked()
		o.mu.Unlock()
		o.render.Render(view)
		return nil
	}
	o.mu.Unlock()

	resp, err := o.api.Data(ctx, client.DataQuery{
		Gender:      gender,
		Platform:    platform,
		Month:       month,
		SortByCount: true,
		Limit:       o.cfg.QuickLimit,
	})
	if err != nil {
		o.fail(gen, Idle, Idle, err)
		return err
	}

	if view, ok := o.applyMonth(gen, month, bucketByMonth(resp.Data)); ok {
		o.render.Render(view)
		o.goBackground(func() { o.prefetchTopMetadata(ctx, view) })
	}
	o.goBackground(func() { o.fullMonthLoad(ctx, gen, gender, platform, month) })
	return nil
}

// fullMonthLoad fetches month and its base month in full.
func (o *Orchestrator) fullMonthLoad(ctx context.Context, gen uint64, gender, platform, month string) {
	resp, err := o.api.Data(ctx, client.DataQuery{Gender: gender, Platform: platform, Month: month})
	if err != nil {
		o.fail(gen, Idle, Idle, err)
		return
	}

	buckets := bucketByMonth(resp.Data)
	view, render := o.applyMonth(gen, month, buckets)
	if o.Generation() != gen {
		return
	}
	o.persist(ctx, gender, platform, buckets)
	if render {
		o.render.Render(view)
	}
	o.goBackground(func() { o.PrefetchMetadata(ctx) })
}

// applyMonth replaces the slices of the months in buckets. It returns the
// view and whether month is still the selected month.
func (o *Orchestrator) applyMonth(gen uint64, month string, buckets map[string][]models.MetricRecord) (View, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if gen != o.generation {
		return View{}, false
	}
	o.replaceLocked(buckets)
	if o.month != month {
		return View{}, false
	}
	return o.viewLocked(), true
}

// fail reports err for a current generation and moves the state from
// `from` to `to` when it is still `from`. Errors of stale loads are dropped.
func (o *Orchestrator) fail(gen uint64, from, to State, err error) {
	o.mu.Lock()
	current := gen == o.generation
	if current && o.state == from {
		o.state = to
	}
	o.mu.Unlock()

	if !current {
		return
	}
	logging.Warn().Err(err).Str("component", "orchestrator").Msg("Load failed")
	o.render.RenderError(err)
}

// persist saves each month bucket. A failed write is logged and does not
// stop the others.
func (o *Orchestrator) persist(ctx context.Context, gender, platform string, buckets map[string][]models.MetricRecord) {
	for _, month := range sortedMonths(buckets) {
		if err := o.store.SaveMonthData(ctx, gender, platform, month, buckets[month]); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("month", month).Msg("Failed to persist month data")
		}
	}
}

func (o *Orchestrator) replaceLocked(buckets map[string][]models.MetricRecord) {
	for month, records := range buckets {
		o.working[month] = records
	}
}

// viewLocked builds the view of the selected month. Base month records
// come first, matching the order the records were loaded in.
func (o *Orchestrator) viewLocked() View {
	v := View{
		Generation: o.generation,
		State:      o.state,
		Gender:     o.gender,
		Platform:   o.platform,
		Month:      o.month,
		Months:     append([]string(nil), o.months...),
	}
	if o.month == "" {
		return v
	}
	v.BaseMonth = ranking.BaseMonth(o.month, o.months)
	if v.BaseMonth != o.month {
		v.Records = append(v.Records, o.working[v.BaseMonth]...)
	}
	v.Records = append(v.Records, o.working[o.month]...)
	return v
}

// bucketByMonth groups records by date.
func bucketByMonth(records []models.MetricRecord) map[string][]models.MetricRecord {
	buckets := make(map[string][]models.MetricRecord)
	for _, r := range records {
		buckets[r.Date] = append(buckets[r.Date], r)
	}
	return buckets
}

func sortedMonths(buckets map[string][]models.MetricRecord) []string {
	months := make([]string, 0, len(buckets))
	for m := range buckets {
		months = append(months, m)
	}
	sort.Strings(months)
	return months
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
