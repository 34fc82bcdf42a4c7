package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOp(kind OperationKind, amount int64, category Category) *Operation {
	return &Operation{
		ID:       uuid.New(),
		WalletID: uuid.New(),
		Kind:     kind,
		Amount:   decimal.NewFromInt(amount),
		Category: category,
	}
}

func TestSummarize(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC)

	ops := []*Operation{
		newOp(OperationKindAddition, 1000, CategorySalary),
		newOp(OperationKindWithdrawal, 300, CategoryFood),
		newOp(OperationKindWithdrawal, 50, CategoryFood),
		newOp(OperationKindTransfer, 200, CategoryOther),
		newOp(OperationKindWithdrawal, 200, CategoryTransport),
	}

	summary := Summarize(ops, &start, &end)

	assert.True(t, decimal.NewFromInt(1000).Equal(summary.TotalAdditions))
	assert.True(t, decimal.NewFromInt(750).Equal(summary.TotalWithdrawals), "transfers count as withdrawals")
	assert.True(t, decimal.NewFromInt(250).Equal(summary.NetChange))
	assert.Equal(t, &start, summary.PeriodStart)
	assert.Equal(t, &end, summary.PeriodEnd)

	require.Len(t, summary.Categories, 4)
	assert.Equal(t, CategorySalary, summary.Categories[0].Category)
	assert.Equal(t, CategoryFood, summary.Categories[1].Category)
	assert.Equal(t, 2, summary.Categories[1].Count)
	assert.True(t, decimal.NewFromInt(350).Equal(summary.Categories[1].TotalAmount))
	// 200/200 tie broken by name
	assert.Equal(t, CategoryOther, summary.Categories[2].Category)
	assert.Equal(t, CategoryTransport, summary.Categories[3].Category)

	categoryTotal := decimal.Zero
	for _, cs := range summary.Categories {
		categoryTotal = categoryTotal.Add(cs.TotalAmount)
	}
	assert.True(t, categoryTotal.Equal(summary.TotalVolume))
	assert.True(t, categoryTotal.Equal(summary.TotalAdditions.Add(summary.TotalWithdrawals)))
}

func TestSummarize_Empty(t *testing.T) {
	summary := Summarize(nil, nil, nil)

	assert.True(t, summary.TotalAdditions.IsZero())
	assert.True(t, summary.TotalWithdrawals.IsZero())
	assert.True(t, summary.NetChange.IsZero())
	assert.NotNil(t, summary.Categories)
	assert.Empty(t, summary.Categories)
	assert.Nil(t, summary.PeriodStart)
}
