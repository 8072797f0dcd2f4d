package cache

import (
	"context"
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"tax-credit-engine/internal/models"
	"tax-credit-engine/internal/services/tax"
	"tax-credit-engine/internal/utils"
)

const comparisonKeyPrefix = "tax:compare:v1:"

// Comparisons memoizes tax.Engine.CompareRegimes. Cache failures are logged
// and the comparison is computed directly.
type Comparisons struct {
	engine *tax.Engine
	store  Cache
	ttl    time.Duration
	rules  string
}

// NewComparisons wraps engine with store. Entries live for ttl.
func NewComparisons(engine *tax.Engine, store Cache, ttl time.Duration) *Comparisons {
	return &Comparisons{
		engine: engine,
		store:  store,
		ttl:    ttl,
		rules:  rulesFingerprint(engine.Aggregator().Rules()),
	}
}

// Compare returns the cached comparison for the input, computing and storing
// it on a miss. Invalid input is never cached.
func (c *Comparisons) Compare(ctx context.Context, grossIncome float64, deductions models.DeductionBreakdown) (models.RegimeComparison, error) {
	logger := utils.GetLogger()
	key := c.Key(grossIncome, deductions)

	if raw, ok, err := c.store.Get(ctx, key); err != nil {
		logger.Warn("Comparison cache read failed", utils.String("key", key), utils.Error(err))
	} else if ok {
		var cmp models.RegimeComparison
		if err := json.Unmarshal([]byte(raw), &cmp); err == nil {
			return cmp, nil
		}
		logger.Warn("Discarding undecodable cache entry", utils.String("key", key))
	}

	cmp, err := c.engine.CompareRegimes(grossIncome, deductions)
	if err != nil {
		return models.RegimeComparison{}, err
	}

	payload, err := json.Marshal(cmp)
	if err != nil {
		logger.Warn("Failed to encode comparison", utils.Error(err))
		return cmp, nil
	}
	if err := c.store.Set(ctx, key, string(payload), c.ttl); err != nil {
		logger.Warn("Comparison cache write failed", utils.String("key", key), utils.Error(err))
	}

	return cmp, nil
}

// Key builds the cache key for an input. Deductions are sorted so map order
// does not matter.
func (c *Comparisons) Key(grossIncome float64, deductions models.DeductionBreakdown) string {
	sections := make([]string, 0, len(deductions))
	for section := range deductions {
		sections = append(sections, string(section))
	}
	sort.Strings(sections)

	var b strings.Builder
	b.WriteString(comparisonKeyPrefix)
	b.WriteString(c.rules)
	b.WriteByte(':')
	b.WriteString(formatAmount(grossIncome))
	for _, s := range sections {
		b.WriteByte('|')
		b.WriteString(s)
		b.WriteByte('=')
		b.WriteString(formatAmount(deductions[models.DeductionSection(s)]))
	}
	return b.String()
}

func rulesFingerprint(rules models.DeductionRules) string {
	parts := make([]string, 0, len(rules.Groups)+1)
	for _, section := range models.DeductionSections() {
		if limit := rules.SectionCap(section); !math.IsInf(limit, 1) {
			parts = append(parts, string(section)+formatAmount(limit))
		}
	}
	for _, g := range rules.Groups {
		parts = append(parts, "g"+formatAmount(g.Cap))
	}
	return strings.Join(parts, ",")
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
