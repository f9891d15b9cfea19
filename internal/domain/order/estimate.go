package order

import (
	"time"

	"storefront/internal/domain/catalog"
)

const (
	basePreparation       = 15 * time.Minute
	defaultPerUnitPrepare = 3 * time.Minute
)

var perUnitPreparation = map[catalog.Category]time.Duration{
	catalog.CategoryBeers:     2 * time.Minute,
	catalog.CategoryCocktails: 5 * time.Minute,
	catalog.CategorySpirits:   1 * time.Minute,
	catalog.CategorySnacks:    10 * time.Minute,
}

// EstimatePreparation is advisory only; it never gates a transition.
func EstimatePreparation(lines []OrderLine) time.Duration {
	total := basePreparation
	for _, line := range lines {
		perUnit, ok := perUnitPreparation[line.Category]
		if !ok {
			perUnit = defaultPerUnitPrepare
		}
		total += perUnit * time.Duration(line.Quantity)
	}
	return total
}

func (o *Order) EstimatedPreparation() time.Duration {
	return EstimatePreparation(o.Lines)
}
