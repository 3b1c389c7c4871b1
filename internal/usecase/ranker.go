package usecase

import (
	"log"
	"sort"

	"github.com/storefront/backend/internal/domain"
)

// Ranker scores a whole catalog and orders the matches
type Ranker struct {
	scorer             *Scorer
	modelCutoffRatio   float64
	enableDebugLogging bool
}

// NewRanker creates a ranker backed by its own scorer
func NewRanker(config ScoringConfig) *Ranker {
	cutoff := config.ModelCutoffRatio
	if cutoff <= 0 {
		cutoff = DefaultModelCutoffRatio
	}

	return &Ranker{
		scorer:             NewScorer(config),
		modelCutoffRatio:   cutoff,
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// Rank returns the products matching tokens, best first. Ties keep catalog
// order. With no tokens search is inactive and every product passes through
// unscored in catalog order.
func (r *Ranker) Rank(products []domain.Product, tokens []string) []domain.ScoredProduct {
	if len(tokens) == 0 {
		all := make([]domain.ScoredProduct, len(products))
		for i, p := range products {
			all[i] = domain.ScoredProduct{Product: p}
		}
		return all
	}

	q := prepareQuery(tokens)

	ranked := make([]domain.ScoredProduct, 0, len(products))
	for _, p := range products {
		if score := r.scorer.score(p, q); score > 0 {
			ranked = append(ranked, domain.ScoredProduct{Product: p, Score: score})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if q.model && len(ranked) > 0 {
		// Sorted descending, so the first entry holds the max score
		cutoff := ranked[0].Score * r.modelCutoffRatio
		kept := ranked[:0]
		for _, sp := range ranked {
			if sp.Score >= cutoff {
				kept = append(kept, sp)
			}
		}
		ranked = kept
	}

	if r.enableDebugLogging {
		log.Printf("[RANK] %d tokens, model=%v accessory=%v: %d of %d products matched",
			len(tokens), q.model, q.accessory, len(ranked), len(products))
	}

	return ranked
}
