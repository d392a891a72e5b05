package payment

import (
	"github.com/brokerage/backend/internal/domain/shared/valueobject"
)

// Distribute rewrites the dollar figures of every split row belonging to a
// payment from the payment's AGCI, the deal's category partition, and each
// broker's stored share percentages. It is a full overwrite of all rows,
// not an incremental adjustment, so re-running it against unchanged inputs
// produces identical values. An empty slice is a valid input and a no-op:
// split rows are created by an explicit assignment action, and house-only
// deals never have any.
func Distribute(agci valueobject.Money, categories valueobject.CategorySplit, splits []PaymentSplit) []PaymentSplit {
	originationTotal := agci.ApplyPercent(categories.Origination())
	siteTotal := agci.ApplyPercent(categories.Site())
	dealTotal := agci.ApplyPercent(categories.Deal())

	for i := range splits {
		splits[i].applyAmounts(
			originationTotal.ApplyPercent(splits[i].OriginationPercent),
			siteTotal.ApplyPercent(splits[i].SitePercent),
			dealTotal.ApplyPercent(splits[i].DealPercent),
		)
	}
	return splits
}
