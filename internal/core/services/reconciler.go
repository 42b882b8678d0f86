package services

import (
	"context"
	"log/slog"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"github.com/ewilliams-labs/reprise/internal/core/domain"
)

// Stats counts what happened during reconciliation.
type Stats struct {
	Tracks        int
	Rows          int
	Deterministic int
	CacheHits     int
	LLMCalls      int
}

// Reconciler drives the per-track matching flow: deterministic lookup first,
// then the in-run result cache, then the fuzzy stage. It owns the cache and
// the stats for exactly one run; build a fresh Reconciler per run.
type Reconciler struct {
	catalog *domain.Catalog
	fuzzy   *FuzzyMatcher
	cache   map[string][]domain.MatchResult
	log     *slog.Logger
	stats   Stats
}

// NewReconciler builds a run-scoped reconciler. A nil fuzzy matcher disables
// the second stage: deterministic misses then resolve to unmatched rows
// without any external call.
func NewReconciler(catalog *domain.Catalog, fuzzy *FuzzyMatcher, log *slog.Logger) *Reconciler {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Reconciler{
		catalog: catalog,
		fuzzy:   fuzzy,
		cache:   make(map[string][]domain.MatchResult),
		log:     log,
	}
}

// Reconcile resolves every track, in input order, into one or more result
// rows. Each track contributes at least one row, so the output is never
// shorter than the input. The only returned error is context cancellation;
// per-track matching failures degrade to unmatched rows instead.
func (r *Reconciler) Reconcile(ctx context.Context, tracks []domain.Track) ([]domain.MatchResult, error) {
	results := make([]domain.MatchResult, 0, len(tracks))
	for _, track := range tracks {
		rows, err := r.resolveTrack(ctx, track)
		if err != nil {
			return nil, err
		}
		results = append(results, rows...)
	}

	r.stats.Tracks += len(tracks)
	r.stats.Rows += len(results)
	r.log.Info("reconciliation complete",
		"tracks", len(tracks),
		"rows", len(results),
		"deterministic", r.stats.Deterministic,
		"llm_calls", r.stats.LLMCalls,
		"cache_hits", r.stats.CacheHits,
	)
	return results, nil
}

// Stats reports the counters accumulated so far.
func (r *Reconciler) Stats() Stats {
	return r.stats
}

func (r *Reconciler) resolveTrack(ctx context.Context, track domain.Track) ([]domain.MatchResult, error) {
	// 1. Deterministic lookup against the normalized catalog index
	if res, ok := domain.DeterministicMatch(track, r.catalog); ok {
		r.stats.Deterministic++
		r.log.Info("matched deterministically", "title", track.RawTitle, "catalog_id", res.CatalogID)
		return []domain.MatchResult{res}, nil
	}
	r.logNearestTitle(ctx, track)

	key := domain.Normalize(track.RawTitle)

	// 2. Reuse an earlier fuzzy outcome for the same normalized title
	if cached, ok := r.cache[key]; ok {
		r.stats.CacheHits++
		r.log.Info("fuzzy cache hit", "title", track.RawTitle)
		return domain.RebindResults(cached, track), nil
	}

	// 3. Without a generator the miss is final
	if r.fuzzy == nil {
		r.log.Info("no generator configured, leaving unmatched", "title", track.RawTitle)
		return []domain.MatchResult{{
			Track:      track,
			Confidence: domain.ConfidenceNone,
			Method:     domain.MethodDeterministic,
		}}, nil
	}

	// 4. Escalate to the fuzzy stage and cache whatever it settles on
	r.stats.LLMCalls++
	r.log.Info("escalating to fuzzy stage", "title", track.RawTitle, "medley", domain.IsMedley(track.RawTitle))
	rows, err := r.fuzzy.Match(ctx, track.RawTitle, r.catalog)
	if err != nil {
		return nil, err
	}
	r.cache[key] = rows
	return domain.RebindResults(rows, track), nil
}

// logNearestTitle records the closest catalog title on a deterministic miss
// as a triage hint. Similarity never influences matching decisions.
func (r *Reconciler) logNearestTitle(ctx context.Context, track domain.Track) {
	if !r.log.Enabled(ctx, slog.LevelDebug) || r.catalog.Len() == 0 {
		return
	}
	key := domain.Normalize(track.RawTitle)
	var bestTitle string
	var bestScore float64
	for _, entry := range r.catalog.Entries() {
		score := strutil.Similarity(key, domain.Normalize(entry.Title), metrics.NewJaroWinkler())
		if score > bestScore {
			bestScore = score
			bestTitle = entry.Title
		}
	}
	r.log.Debug("no exact catalog match", "title", track.RawTitle, "nearest", bestTitle, "similarity", bestScore)
}
