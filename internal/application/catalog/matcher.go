package catalog

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/mohammadpnp/catalog-sync/internal/domain/cardname"
	domain "github.com/mohammadpnp/catalog-sync/internal/domain/catalog"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// CardLookup is the remote canonical card database.
type CardLookup interface {
	ExactName(ctx context.Context, name string) ([]domain.CanonicalCard, error)
	FuzzyName(ctx context.Context, fragment string, limit int) ([]domain.CanonicalCard, error)
}

type cardCache interface {
	FindCandidates(ctx context.Context, normalizedName string, limit int) ([]domain.CanonicalCard, error)
	Upsert(ctx context.Context, cards []domain.CanonicalCard) error
}

type MatcherConfig struct {
	CacheCandidates int
	FuzzyWords      int
	FuzzyLimit      int
	Aliases         cardname.Aliases
}

// Matcher resolves free-text product titles to canonical cards. Local cache
// rows are preferred; remote hits are written back to the cache.
type Matcher struct {
	cache  cardCache
	lookup CardLookup
	cfg    MatcherConfig
	logger zerolog.Logger
}

func NewMatcher(cache cardCache, lookup CardLookup, cfg MatcherConfig, logger zerolog.Logger) *Matcher {
	if cfg.CacheCandidates <= 0 {
		cfg.CacheCandidates = 10
	}
	if cfg.FuzzyWords <= 0 {
		cfg.FuzzyWords = 3
	}
	if cfg.FuzzyLimit <= 0 {
		cfg.FuzzyLimit = 10
	}
	return &Matcher{
		cache:  cache,
		lookup: lookup,
		cfg:    cfg,
		logger: logger.With().Str("component", "matcher").Logger(),
	}
}

// Resolve never fails: lookup errors are logged and reported as not found.
func (m *Matcher) Resolve(ctx context.Context, rawTitle string) domain.MatchResult {
	name, key := m.candidate(rawTitle)
	if key == "" {
		return domain.NotFound()
	}
	result, _ := m.resolveCandidate(ctx, name, key)
	return result
}

// NewSession returns a memoizing view of the matcher for one invocation.
func (m *Matcher) NewSession() *MatchSession {
	return &MatchSession{
		matcher: m,
		results: make(map[string]domain.MatchResult),
	}
}

func (m *Matcher) candidate(rawTitle string) (string, string) {
	name := cardname.ExtractCandidateName(rawTitle)
	key := cardname.Normalize(name)
	if key == "" {
		return "", ""
	}
	if official, ok := m.cfg.Aliases.Lookup(key); ok {
		name = official
		key = cardname.Normalize(official)
	}
	return name, key
}

func (m *Matcher) resolveCandidate(ctx context.Context, name, key string) (domain.MatchResult, error) {
	rows, err := m.cache.FindCandidates(ctx, key, m.cfg.CacheCandidates)
	if err != nil {
		m.logger.Warn().Err(err).Str("candidate", name).Msg("card cache lookup failed")
	} else if card, score, ok := BestCandidate(key, rows); ok {
		return domain.Found(domain.NewMatch(card, score)), nil
	}

	exact, err := m.lookup.ExactName(ctx, name)
	if err != nil {
		m.logger.Warn().Err(err).Str("candidate", name).Msg("exact card lookup failed")
		return domain.NotFound(), fmt.Errorf("exact lookup: %w", err)
	}
	if len(exact) > 0 {
		m.remember(ctx, exact)
		return domain.Found(domain.NewMatch(exact[0], domain.ScoreExact)), nil
	}

	fragment := cardname.FirstWords(name, m.cfg.FuzzyWords)
	fuzzy, err := m.lookup.FuzzyName(ctx, fragment, m.cfg.FuzzyLimit)
	if err != nil {
		m.logger.Warn().Err(err).Str("candidate", name).Str("fragment", fragment).Msg("fuzzy card lookup failed")
		return domain.NotFound(), fmt.Errorf("fuzzy lookup: %w", err)
	}
	if len(fuzzy) == 0 {
		return domain.NotFound(), nil
	}
	m.remember(ctx, fuzzy)

	card, score, ok := BestCandidate(key, fuzzy)
	if !ok {
		m.logger.Debug().Str("candidate", name).Int("candidates", len(fuzzy)).Msg("no fuzzy candidate accepted")
		return domain.NotFound(), nil
	}
	return domain.Found(domain.NewMatch(card, score)), nil
}

func (m *Matcher) remember(ctx context.Context, cards []domain.CanonicalCard) {
	rows := make([]domain.CanonicalCard, 0, len(cards))
	for _, card := range cards {
		if card.ID == 0 || card.Name == "" {
			continue
		}
		if card.NormalizedName == "" {
			card.NormalizedName = cardname.Normalize(card.Name)
		}
		rows = append(rows, card)
	}
	if len(rows) == 0 {
		return
	}
	if err := m.cache.Upsert(ctx, rows); err != nil {
		m.logger.Warn().Err(err).Int("cards", len(rows)).Msg("card cache upsert failed")
	}
}

// ScoreCandidate scores a card name against a search name. Both are
// normalized before comparison.
func ScoreCandidate(query, name string) int {
	q := cardname.Normalize(query)
	n := cardname.Normalize(name)
	if q == "" || n == "" {
		return 0
	}

	switch {
	case q == n:
		return domain.ScoreExact
	case strings.Contains(n, q) || strings.Contains(q, n):
		return domain.ScoreContains
	case strings.HasPrefix(n, firstWord(q)):
		return domain.ScorePrefix
	default:
		return domain.ScoreFloor
	}
}

// BestCandidate returns the highest scoring card when it reaches the
// acceptance threshold. Ties prefer the name closest in length.
func BestCandidate(query string, cards []domain.CanonicalCard) (domain.CanonicalCard, int, bool) {
	if len(cards) == 0 {
		return domain.CanonicalCard{}, 0, false
	}

	type scored struct {
		card  domain.CanonicalCard
		score int
		delta int
	}
	q := cardname.Normalize(query)
	ranked := make([]scored, 0, len(cards))
	for _, card := range cards {
		n := card.NormalizedName
		if n == "" {
			n = cardname.Normalize(card.Name)
		}
		ranked = append(ranked, scored{
			card:  card,
			score: ScoreCandidate(q, n),
			delta: absInt(len(n) - len(q)),
		})
	}
	slices.SortStableFunc(ranked, func(a, b scored) int {
		if a.score != b.score {
			return b.score - a.score
		}
		return a.delta - b.delta
	})

	best := ranked[0]
	if best.score < domain.ScoreAccept {
		return domain.CanonicalCard{}, best.score, false
	}
	return best.card, best.score, true
}

func firstWord(s string) string {
	if i := strings.IndexByte(s, ' '); i >= 0 {
		return s[:i]
	}
	return s
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// MatchSession memoizes results by normalized candidate for the lifetime of
// one batch or event. It is safe for concurrent use and must not outlive the
// invocation that created it.
type MatchSession struct {
	matcher *Matcher
	group   singleflight.Group

	mu      sync.Mutex
	results map[string]domain.MatchResult
}

func (s *MatchSession) Resolve(ctx context.Context, rawTitle string) domain.MatchResult {
	name, key := s.matcher.candidate(rawTitle)
	if key == "" {
		return domain.NotFound()
	}

	if result, ok := s.cached(key); ok {
		return result
	}

	value, _, _ := s.group.Do(key, func() (any, error) {
		if result, ok := s.cached(key); ok {
			return result, nil
		}
		result, err := s.matcher.resolveCandidate(ctx, name, key)
		if err == nil {
			s.mu.Lock()
			s.results[key] = result
			s.mu.Unlock()
		}
		return result, nil
	})
	return value.(domain.MatchResult)
}

// Len reports how many candidates are memoized.
func (s *MatchSession) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.results)
}

func (s *MatchSession) cached(key string) (domain.MatchResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result, ok := s.results[key]
	return result, ok
}
