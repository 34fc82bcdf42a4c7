package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// CategorySummary aggregates the operations of one category
type CategorySummary struct {
	Category    Category
	Count       int
	TotalAmount decimal.Decimal
}

// Summary aggregates a set of operations.
// Outgoing transfers count as withdrawals of the owning wallet.
type Summary struct {
	TotalAdditions   decimal.Decimal
	TotalWithdrawals decimal.Decimal // withdrawals + outgoing transfers
	NetChange        decimal.Decimal // additions - withdrawals
	TotalVolume      decimal.Decimal // additions + withdrawals == sum of category totals
	Categories       []CategorySummary
	PeriodStart      *time.Time
	PeriodEnd        *time.Time
}

// Summarize aggregates ops into totals and a per-category breakdown.
// Categories are sorted by total amount descending, ties by category name.
func Summarize(ops []*Operation, start, end *time.Time) Summary {
	summary := Summary{
		TotalAdditions:   decimal.Zero,
		TotalWithdrawals: decimal.Zero,
		PeriodStart:      start,
		PeriodEnd:        end,
	}

	byCategory := make(map[Category]*CategorySummary)
	for _, op := range ops {
		switch op.Kind {
		case OperationKindAddition:
			summary.TotalAdditions = summary.TotalAdditions.Add(op.Amount)
		case OperationKindWithdrawal, OperationKindTransfer:
			summary.TotalWithdrawals = summary.TotalWithdrawals.Add(op.Amount)
		}

		cs, ok := byCategory[op.Category]
		if !ok {
			cs = &CategorySummary{Category: op.Category, TotalAmount: decimal.Zero}
			byCategory[op.Category] = cs
		}
		cs.Count++
		cs.TotalAmount = cs.TotalAmount.Add(op.Amount)
	}

	summary.NetChange = summary.TotalAdditions.Sub(summary.TotalWithdrawals)
	summary.TotalVolume = summary.TotalAdditions.Add(summary.TotalWithdrawals)

	summary.Categories = make([]CategorySummary, 0, len(byCategory))
	for _, cs := range byCategory {
		summary.Categories = append(summary.Categories, *cs)
	}
	sort.Slice(summary.Categories, func(i, j int) bool {
		a, b := summary.Categories[i], summary.Categories[j]
		if cmp := a.TotalAmount.Cmp(b.TotalAmount); cmp != 0 {
			return cmp > 0
		}
		return a.Category < b.Category
	})

	return summary
}
