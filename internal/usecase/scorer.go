package usecase

import (
	"log"
	"regexp"
	"strings"

	"github.com/storefront/backend/internal/domain"
)

// Field weights for per-token scoring
const (
	weightName        = 25.0
	weightDescription = 3.0
	weightCategory    = 4.0
	weightSubcategory = 3.0
	weightColor       = 2.0
)

// Per-token match factors
const (
	exactWordFactor     = 3.0  // Whole-word match in a field
	compactModelFactor  = 2.5  // Model-like token found in compacted field text
	colorMatchFactor    = 2.0  // Token equals a color name
	fuzzyStepPenalty    = 0.3  // Each edit costs 30% of the field weight
	maxFuzzyDistance    = 2    // Words further away than this contribute nothing
	minFuzzyTokenLength = 4    // Shorter tokens only match words containing them
	namePrefixBonus     = 1.5  // Exact token that starts the product name
	modelPrefixBonus    = 1.35 // Model-like token that starts the compacted name
)

// Whole-query bonuses, multiplied by the product type score
const (
	exactNameMultiplier = 1000.0
	compactQueryBonus   = 120.0
	consecutiveBonus    = 200.0
	inOrderBonus        = 100.0
)

// Type scores and thresholds
const (
	accessoryBoostTypeScore   = 20.0
	accessoryPenaltyTypeScore = 2.0
	defaultTypeScore          = 5.0
	modelQueryThreshold       = 10.0
	genericQueryThreshold     = 5.0
)

// Tunable defaults. These were picked empirically and are exposed through config.
const (
	DefaultModelCutoffRatio     = 0.3
	DefaultAccessoryPenalty     = 0.2
	DefaultUnmatchedNamePenalty = 0.3
)

type typeWeight struct {
	term   string
	weight float64
}

// productTypeWeights is searched in order; the first term contained in the
// product text decides the type score.
var productTypeWeights = []typeWeight{
	{"phone", 10}, {"laptop", 10}, {"tablet", 10}, {"watch", 10},
	{"accessories", 2}, {"case", 2}, {"charger", 2}, {"cable", 2}, {"screen protector", 2},
	{"earphones", 5}, {"headphones", 5}, {"airpods", 5},
	{"accessory", 3},
}

// accessoryTerms mark accessory intent in a query and accessory products in the catalog
var accessoryTerms = []string{
	"charger", "cable", "case", "cover", "protector", "accessory", "accessories",
	"screen guard", "power bank", "adapter", "dock", "stand", "mount", "holder",
}

var accessoryTermSet = func() map[string]bool {
	set := make(map[string]bool, len(accessoryTerms))
	for _, term := range accessoryTerms {
		set[term] = true
	}
	return set
}()

// modelConflictTerms identify accessories that should not outrank the device
// itself when the query names a specific model
var modelConflictTerms = []string{"case", "cover", "charger", "cable", "protector", "accessory"}

// ScoringConfig holds configuration for the scorer and ranker
type ScoringConfig struct {
	ModelCutoffRatio     float64
	AccessoryPenalty     float64
	UnmatchedNamePenalty float64
	EnableDebugLogging   bool
}

// Scorer computes the relevance of a single product for a tokenized query
type Scorer struct {
	accessoryPenalty     float64
	unmatchedNamePenalty float64
	enableDebugLogging   bool
}

// NewScorer creates a scorer, falling back to defaults for unset tunables
func NewScorer(config ScoringConfig) *Scorer {
	accessoryPenalty := config.AccessoryPenalty
	if accessoryPenalty <= 0 {
		accessoryPenalty = DefaultAccessoryPenalty
	}

	unmatchedPenalty := config.UnmatchedNamePenalty
	if unmatchedPenalty <= 0 {
		unmatchedPenalty = DefaultUnmatchedNamePenalty
	}

	return &Scorer{
		accessoryPenalty:     accessoryPenalty,
		unmatchedNamePenalty: unmatchedPenalty,
		enableDebugLogging:   config.EnableDebugLogging,
	}
}

// queryToken is a token with everything the scorer derives from it precomputed
type queryToken struct {
	text      string
	compact   string
	modelLike bool
	wordRegex *regexp.Regexp
}

// preparedQuery is a tokenized query ready to be scored against many products
type preparedQuery struct {
	tokens     []queryToken
	tokenIndex map[string]int
	full       string
	compact    string
	accessory  bool
	model      bool
}

func prepareQuery(tokens []string) *preparedQuery {
	q := &preparedQuery{
		tokens:     make([]queryToken, 0, len(tokens)),
		tokenIndex: make(map[string]int, len(tokens)),
		full:       strings.Join(tokens, " "),
	}
	q.compact = NormalizeCompact(q.full)

	for i, t := range tokens {
		q.tokens = append(q.tokens, queryToken{
			text:      t,
			compact:   NormalizeCompact(t),
			modelLike: IsModelLike(t),
			wordRegex: regexp.MustCompile(`\b` + regexp.QuoteMeta(t) + `\b`),
		})
		if _, seen := q.tokenIndex[t]; !seen {
			q.tokenIndex[t] = i
		}
		if accessoryTermSet[t] {
			q.accessory = true
		}
		if hasDigit(t) {
			q.model = true
		}
	}
	return q
}

// threshold is the minimum score a product needs to stay in the results
func (q *preparedQuery) threshold() float64 {
	if q.model {
		return modelQueryThreshold
	}
	return genericQueryThreshold
}

type scoredField struct {
	raw     string
	compact string
	weight  float64
}

// productFields holds the lowercased and compacted text of a product
type productFields struct {
	name        string
	compactName string
	typeText    string
	colors      []string
	fields      []scoredField
}

func newProductFields(p domain.Product) *productFields {
	name := strings.ToLower(strings.TrimSpace(p.Name))
	category := strings.ToLower(p.Category)
	subcategory := strings.ToLower(p.Subcategory)

	pf := &productFields{
		name:        name,
		compactName: NormalizeCompact(name),
		typeText:    category + " " + subcategory + " " + name,
		colors:      make([]string, 0, len(p.Colors)),
	}
	for _, c := range p.Colors {
		pf.colors = append(pf.colors, strings.ToLower(strings.TrimSpace(c.Name)))
	}

	pf.fields = []scoredField{
		{raw: name, compact: pf.compactName, weight: weightName},
		{raw: strings.ToLower(p.Description), weight: weightDescription},
		{raw: category, weight: weightCategory},
		{raw: subcategory, weight: weightSubcategory},
	}
	for i := 1; i < len(pf.fields); i++ {
		pf.fields[i].compact = NormalizeCompact(pf.fields[i].raw)
	}
	return pf
}

func (pf *productFields) isAccessory() bool {
	for _, term := range accessoryTerms {
		if strings.Contains(pf.typeText, term) {
			return true
		}
	}
	return false
}

func (pf *productFields) hasModelConflict() bool {
	for _, term := range modelConflictTerms {
		if strings.Contains(pf.typeText, term) {
			return true
		}
	}
	return false
}

// Score returns the relevance of product for the given query tokens.
// 0 means the product does not match; an empty query always scores 0.
func (s *Scorer) Score(product domain.Product, tokens []string) float64 {
	if len(tokens) == 0 {
		return 0
	}
	return s.score(product, prepareQuery(tokens))
}

func (s *Scorer) score(product domain.Product, q *preparedQuery) float64 {
	if len(q.tokens) == 0 {
		return 0
	}

	pf := newProductFields(product)
	typeScore := productTypeScore(pf, q)

	var total float64
	if q.compact != "" && strings.Contains(pf.compactName, q.compact) {
		total += compactQueryBonus * typeScore
	}

	if pf.name == q.full {
		if s.enableDebugLogging {
			log.Printf("[SCORE] %q | exact name match | type=%.2f", product.Name, typeScore)
		}
		return exactNameMultiplier * typeScore
	}

	if q.model && !q.accessory && pf.hasModelConflict() {
		typeScore *= s.accessoryPenalty
	}

	order := analyzeNameOrder(pf, q)
	switch {
	case order.maxConsecutive == len(q.tokens) && order.allTermsInName:
		total += consecutiveBonus * typeScore
	case order.inOrderCount == len(q.tokens):
		total += inOrderBonus * typeScore
	}

	for _, token := range q.tokens {
		if tokenScore := scoreToken(pf, token); tokenScore > 0 {
			total += tokenScore * typeScore
		}
	}

	if !order.allTermsInName {
		total *= s.unmatchedNamePenalty
	}

	if total < q.threshold() {
		total = 0
	}

	if s.enableDebugLogging {
		log.Printf("[SCORE] %q | type=%.2f | consecutive=%d inOrder=%d allInName=%v | score=%.2f",
			product.Name, typeScore, order.maxConsecutive, order.inOrderCount, order.allTermsInName, total)
	}

	return total
}

// productTypeScore weighs how well the kind of product fits the query intent
func productTypeScore(pf *productFields, q *preparedQuery) float64 {
	if q.accessory {
		if pf.isAccessory() {
			return accessoryBoostTypeScore
		}
		return accessoryPenaltyTypeScore
	}

	for _, tw := range productTypeWeights {
		if strings.Contains(pf.typeText, tw.term) {
			return tw.weight
		}
	}
	return defaultTypeScore
}

type nameOrder struct {
	maxConsecutive int
	inOrderCount   int
	allTermsInName bool
}

// analyzeNameOrder walks the product name words and measures how closely they
// follow the query token order. A streak only continues across adjacent name
// words; in-order hits may have unrelated words between them.
func analyzeNameOrder(pf *productFields, q *preparedQuery) nameOrder {
	var order nameOrder

	lastIndex := -1
	streak := 0
	for _, word := range splitWords(pf.name) {
		idx, ok := q.tokenIndex[word]
		if !ok {
			streak = 0
			continue
		}
		if idx == lastIndex+1 {
			streak++
			order.inOrderCount++
		} else {
			streak = 1
		}
		order.maxConsecutive = max(order.maxConsecutive, streak)
		lastIndex = idx
	}

	order.allTermsInName = true
	for _, token := range q.tokens {
		if strings.Contains(pf.name, token.text) {
			continue
		}
		if token.modelLike && token.compact != "" && strings.Contains(pf.compactName, token.compact) {
			continue
		}
		order.allTermsInName = false
		break
	}

	return order
}

// scoreToken scores one query token against every field of a product,
// before the type multiplier is applied
func scoreToken(pf *productFields, token queryToken) float64 {
	var score float64
	exact := false

	for _, color := range pf.colors {
		if color == token.text {
			score += weightColor * colorMatchFactor
		}
	}

	for _, f := range pf.fields {
		if f.raw == "" {
			continue
		}
		switch {
		case token.wordRegex.MatchString(f.raw):
			score += f.weight * exactWordFactor
			exact = true
		case token.modelLike && token.compact != "" && strings.Contains(f.compact, token.compact):
			score += f.weight * compactModelFactor
		default:
			score += fuzzyFieldScore(f, token.text)
		}
	}

	switch {
	case exact && strings.HasPrefix(pf.name, token.text):
		score *= namePrefixBonus
	case token.modelLike && token.compact != "" && strings.HasPrefix(pf.compactName, token.compact):
		score *= modelPrefixBonus
	}

	return score
}

// fuzzyFieldScore gives partial credit to field words within a small edit
// distance of the token. Words containing the token are always compared;
// other words only when the token is long enough to make a typo plausible.
func fuzzyFieldScore(f scoredField, token string) float64 {
	containsToken := strings.Contains(f.raw, token)
	if !containsToken && len(token) < minFuzzyTokenLength {
		return 0
	}

	var score float64
	for _, word := range splitWords(f.raw) {
		if !strings.Contains(word, token) {
			if len(token) < minFuzzyTokenLength || absInt(len(word)-len(token)) > maxFuzzyDistance {
				continue
			}
		}
		if d := Levenshtein(word, token); d <= maxFuzzyDistance {
			score += f.weight * (1 - float64(d)*fuzzyStepPenalty)
		}
	}
	return score
}

// Levenshtein calculates the edit distance between two strings using the
// full dynamic-programming matrix. Insert, delete and substitute cost 1.
func Levenshtein(a, b string) int {
	r1 := []rune(a)
	r2 := []rune(b)
	m := len(r1)
	n := len(r2)

	if m == 0 {
		return n
	}
	if n == 0 {
		return m
	}

	matrix := make([][]int, m+1)
	for i := range matrix {
		matrix[i] = make([]int, n+1)
		matrix[i][0] = i
	}
	for j := 0; j <= n; j++ {
		matrix[0][j] = j
	}

	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			matrix[i][j] = min(
				matrix[i-1][j]+1,      // deletion
				matrix[i][j-1]+1,      // insertion
				matrix[i-1][j-1]+cost, // substitution
			)
		}
	}

	return matrix[m][n]
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
