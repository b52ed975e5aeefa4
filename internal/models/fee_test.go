package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFeeRecomputeStatusOrder(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	past := now.AddDate(0, -1, 0)
	future := now.AddDate(0, 1, 0)

	cases := []struct {
		name   string
		total  float64
		paid   float64
		due    time.Time
		status string
	}{
		{"paid even when overdue", 1000, 1000, past, FeePaid},
		{"overdue without payment", 1000, 0, past, FeeOverdue},
		{"partial regardless of due date", 1000, 400, past, FeePartial},
		{"partial before due date", 1000, 400, future, FeePartial},
		{"pending before due date", 1000, 0, future, FeePending},
		{"pending on the due instant", 1000, 0, now, FeePending},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fee := Fee{TotalFee: tc.total, PaidAmount: tc.paid, DueDate: tc.due}
			fee.Recompute(now)
			assert.Equal(t, tc.status, fee.Status)
			assert.Equal(t, tc.total-tc.paid, fee.RemainingAmount)
		})
	}
}

func TestFeeStructureTotal(t *testing.T) {
	s := FeeStructure{TuitionFee: 500, TransportFee: 100, LabFee: 50, OtherFees: []OtherFee{{Description: "trip", Amount: 25}}}
	assert.Equal(t, 675.0, s.Total())
}
