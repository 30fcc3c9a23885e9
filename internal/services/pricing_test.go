package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeTotal(t *testing.T) {
	assert.Equal(t, int64(30000), ComputeTotal(10000, 3))
	assert.Equal(t, int64(0), ComputeTotal(10000, 0))
	assert.Equal(t, int64(0), ComputeTotal(-500, 3))
	assert.Equal(t, int64(10000), ComputeTotal(10000, 1))
}

func TestComputeDeposit(t *testing.T) {
	assert.Equal(t, int64(15000), ComputeDeposit(30000))
	// Half-up rounding on odd totals.
	assert.Equal(t, int64(13), ComputeDeposit(25))
	assert.Equal(t, int64(0), ComputeDeposit(0))
}

func TestComputeCommission(t *testing.T) {
	// 5% at and below the threshold.
	assert.Equal(t, int64(2500), ComputeCommission(50000))
	assert.Equal(t, int64(750), ComputeCommission(15000))

	// 10% above it.
	assert.Equal(t, int64(5000), ComputeCommission(50001))
	assert.Equal(t, int64(10000), ComputeCommission(100000))
}

func TestPriceQuote(t *testing.T) {
	// 10,000 per night for 3 nights: deposit 15,000, commission 5%,
	// payable 15,750.
	q := PriceQuote(10000, 3)
	assert.Equal(t, int64(30000), q.Total)
	assert.Equal(t, int64(15000), q.Deposit)
	assert.Equal(t, int64(750), q.Commission)
	assert.Equal(t, int64(15750), q.AmountToPay)

	// Deposit right at the threshold stays on the low rate.
	q = PriceQuote(20000, 5)
	assert.Equal(t, int64(50000), q.Deposit)
	assert.Equal(t, int64(2500), q.Commission)
	assert.Equal(t, int64(52500), q.AmountToPay)

	// One unit above the threshold jumps to the high rate.
	q = PriceQuote(100002, 1)
	assert.Equal(t, int64(50001), q.Deposit)
	assert.Equal(t, int64(5000), q.Commission)
	assert.Equal(t, int64(55001), q.AmountToPay)
}

func TestPayoutAmount(t *testing.T) {
	assert.Equal(t, int64(14250), PayoutAmount(15000, 750))
	assert.Equal(t, int64(0), PayoutAmount(0, 0))
	// Never negative even with inconsistent inputs.
	assert.Equal(t, int64(0), PayoutAmount(100, 500))
}
