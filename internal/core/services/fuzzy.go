package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/time/rate"

	"github.com/ewilliams-labs/reprise/internal/core/domain"
	"github.com/ewilliams-labs/reprise/internal/core/ports"
)

const matchSystemPrompt = `You are a music catalog matching expert at a major music publisher.
Your job is to match live performance setlist track names against our internal song catalog.

RULES:
1. A setlist track may be an abbreviation, variation, or alternate version of a catalog song.
   Example: "Tokyo (Acoustic)" could match "Midnight in Tokyo".
2. A setlist track with "/" is a MEDLEY and may match MULTIPLE catalog songs.
   Example: "Desert Rain / Ocean Avenue" should match both "Desert Rain" AND "Ocean Avenue".
3. If a track is a well-known song by ANOTHER artist (a cover), it is NOT CONTROLLED by us.
   Example: "Yesterday" is by The Beatles, so it gets no match.
4. Only match when you are genuinely confident. Never force-match vaguely similar titles.
5. When unsure, use confidence "Review" instead of guessing.

CONFIDENCE LEVELS:
- "High": confident match (abbreviation, suffix removed, clear variation).
- "Review": possible match that needs human review.
- "None": no match, or the song is a cover we do not control.

Return ONLY valid JSON. No other text.`

// RetryPolicy is the backoff configuration for fuzzy-stage calls:
// MaxRetries attempts after the first, delays growing from BackoffBase and
// capped at BackoffMax, with up to Jitter of randomization per delay.
type RetryPolicy struct {
	MaxRetries  int
	BackoffBase time.Duration
	BackoffMax  time.Duration
	Jitter      time.Duration
}

func (p RetryPolicy) backoff() retry.Backoff {
	b := retry.NewExponential(p.BackoffBase)
	if p.Jitter > 0 {
		b = retry.WithJitter(p.Jitter, b)
	}
	b = retry.WithCappedDuration(p.BackoffMax, b)
	return retry.WithMaxRetries(uint64(p.MaxRetries), b)
}

// FuzzyMatcher is the second matching stage: it asks the text generator to
// match a title the deterministic stage missed, constrains the response
// shape, and validates every returned identifier before it can reach output.
type FuzzyMatcher struct {
	generator ports.TextGenerator
	policy    RetryPolicy
	limiter   *rate.Limiter
	log       *slog.Logger
}

// NewFuzzyMatcher wires a matcher around the given generator. callDelay is
// the minimum spacing between consecutive generator calls; zero disables
// spacing. Zero policy fields fall back to the defaults used in production.
func NewFuzzyMatcher(generator ports.TextGenerator, policy RetryPolicy, callDelay time.Duration, log *slog.Logger) *FuzzyMatcher {
	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}
	if policy.BackoffBase <= 0 {
		policy.BackoffBase = 2 * time.Second
	}
	if policy.BackoffMax <= 0 {
		policy.BackoffMax = 30 * time.Second
	}
	if policy.Jitter < 0 {
		policy.Jitter = 0
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &FuzzyMatcher{
		generator: generator,
		policy:    policy,
		limiter:   rate.NewLimiter(rate.Every(callDelay), 1),
		log:       log,
	}
}

// Match resolves one escalated title into a validated result sequence.
// A medley title yields one result per sub-title, in sub-title order.
// Transport and parse failures are retried under the policy; exhaustion is
// not fatal and yields fail-safe unmatched rows instead. The returned
// results carry no track context; the caller binds them to a Track.
func (m *FuzzyMatcher) Match(ctx context.Context, rawTitle string, catalog *domain.Catalog) ([]domain.MatchResult, error) {
	parts := domain.SplitMedley(rawTitle)
	userPrompt := buildMatchPrompt(rawTitle, parts, catalog)
	m.log.Debug("fuzzy match prompt built", "title", rawTitle, "parts", len(parts), "prompt_bytes", len(userPrompt))

	var validated []domain.MatchResult
	attempt := 0
	err := retry.Do(ctx, m.policy.backoff(), func(ctx context.Context) error {
		attempt++
		if err := m.limiter.Wait(ctx); err != nil {
			return err
		}

		raw, err := m.generator.GenerateJSON(ctx, matchSystemPrompt, userPrompt)
		if err != nil {
			m.log.Warn("generator call failed", "title", rawTitle, "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}

		candidates, err := parseCandidates(raw)
		if err != nil {
			m.log.Warn("generator response rejected", "title", rawTitle, "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}

		if len(candidates) != len(parts) {
			err := &ParseError{Reason: fmt.Sprintf("expected %d match entries, got %d", len(parts), len(candidates))}
			m.log.Warn("generator response rejected", "title", rawTitle, "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}

		validated = m.validateAll(rawTitle, candidates, catalog)
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		m.log.Error("fuzzy matching exhausted retries", "title", rawTitle, "attempts", attempt, "error", err)
		return failSafeResults(parts), nil
	}
	return validated, nil
}

func (m *FuzzyMatcher) validateAll(rawTitle string, candidates []domain.CandidateMatch, catalog *domain.Catalog) []domain.MatchResult {
	out := make([]domain.MatchResult, 0, len(candidates))
	for _, cand := range candidates {
		res := domain.ValidateCandidate(cand, catalog)

		if id := strings.TrimSpace(cand.CatalogID); id != "" && !strings.EqualFold(id, "None") && !res.Matched() {
			m.log.Warn("discarding unknown catalog id from generator", "title", rawTitle, "catalog_id", id)
		}
		if conf := strings.TrimSpace(cand.Confidence); conf != "" && !domain.Confidence(conf).Valid() {
			m.log.Warn("unrecognized confidence label from generator", "title", rawTitle, "confidence", conf)
		}

		out = append(out, res)
	}
	return out
}

func failSafeResults(parts []string) []domain.MatchResult {
	out := make([]domain.MatchResult, len(parts))
	for i := range out {
		out[i] = domain.MatchResult{Confidence: domain.ConfidenceNone, Method: domain.MethodLLM}
	}
	return out
}

func buildMatchPrompt(rawTitle string, parts []string, catalog *domain.Catalog) string {
	var b strings.Builder

	b.WriteString("Match this setlist track against our catalog:\n\n")
	fmt.Fprintf(&b, "SETLIST TRACK: %q\n", rawTitle)

	if len(parts) > 1 {
		fmt.Fprintf(&b, "\nIMPORTANT: This is a MEDLEY containing %d songs: %q.\n", len(parts), parts)
		b.WriteString("You MUST return a SEPARATE match entry for EACH song, in the same order.\n")
		fmt.Fprintf(&b, "Return exactly %d objects in the \"matches\" array, one per song.\n", len(parts))
	}

	b.WriteString("\nOUR CATALOG:\n")
	for _, entry := range catalog.Entries() {
		fmt.Fprintf(&b, "- %s: %q (Writers: %s)\n", entry.ID, entry.Title, entry.Writers)
	}

	b.WriteString("\nReturn JSON with this exact structure:\n")
	b.WriteString(`{"matches": [{"catalog_id": "CAT-XXX or None", "confidence": "High/Review/None", "title": "the sub-title this entry answers", "reasoning": "brief explanation"}]}`)
	b.WriteString("\n\nIf this is a medley, include one entry per song in the medley.\n")
	b.WriteString(`If there is no match or the song is a cover, use: {"catalog_id": "None", "confidence": "None"}.`)

	return b.String()
}
