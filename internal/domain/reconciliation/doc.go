// Package reconciliation implements the cross-system diff between the
// internal deal records and the mirrored external CRM opportunities. The
// comparator recomputes the same five financial quantities from both data
// sources and reports signed variances; deals with no external match are
// reported as full-variance rows by design, surfacing sync gaps.
package reconciliation

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)
