package catalog

import "github.com/samber/mo"

const (
	ScoreExact    = 100
	ScoreContains = 80
	ScorePrefix   = 50
	ScoreFloor    = 10

	// ScoreAccept is the lowest score a candidate needs to be accepted.
	ScoreAccept = ScorePrefix
	// ScoreStrong separates strong matches from weak ones.
	ScoreStrong = ScoreContains
)

type MatchTier string

const (
	MatchTierStrong MatchTier = "strong"
	MatchTierWeak   MatchTier = "weak"
)

type Match struct {
	CardID     int64
	Name       string
	ImageURL   string
	Confidence float64
	Tier       MatchTier
}

// MatchResult is either Some(Match) or None when no card was accepted.
type MatchResult = mo.Option[Match]

// NewMatch builds a Match from an accepted card and its score.
func NewMatch(card CanonicalCard, score int) Match {
	tier := MatchTierWeak
	if score >= ScoreStrong {
		tier = MatchTierStrong
	}
	return Match{
		CardID:     card.ID,
		Name:       card.Name,
		ImageURL:   card.ImageURL,
		Confidence: float64(score) / 100,
		Tier:       tier,
	}
}

func Found(m Match) MatchResult {
	return mo.Some(m)
}

func NotFound() MatchResult {
	return mo.None[Match]()
}
