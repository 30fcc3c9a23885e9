package services

import (
	"github.com/shopspring/decimal"
)

// Deposit is 50% of the total stay price. Commission is the platform's cut of
// the deposit: 5% up to the 50,000 threshold (inclusive), 10% above it. The
// client pays deposit + commission; no processor fee is passed on.
const (
	depositRate         = 0.50
	commissionLowRate   = 0.05
	commissionHighRate  = 0.10
	commissionThreshold = 50000
)

// clampAmount coerces an amount to a non-negative integer. Malformed or
// negative input prices as zero instead of failing.
func clampAmount(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}

// ComputeTotal returns pricePerNight * nights, both clamped to >= 0.
func ComputeTotal(pricePerNight int64, nights int) int64 {
	n := int64(nights)
	if n < 0 {
		n = 0
	}
	return clampAmount(pricePerNight) * n
}

// ComputeDeposit returns round(total * 0.50). Rounding is round-half-up
// (decimal half-away-from-zero; identical on the non-negative domain).
func ComputeDeposit(total int64) int64 {
	return decimal.NewFromInt(clampAmount(total)).
		Mul(decimal.NewFromFloat(depositRate)).
		Round(0).
		IntPart()
}

// ComputeCommission returns round(deposit * 0.05) while the deposit is at or
// under the 50,000 threshold, round(deposit * 0.10) above it.
func ComputeCommission(deposit int64) int64 {
	dep := clampAmount(deposit)
	rate := commissionLowRate
	if dep > commissionThreshold {
		rate = commissionHighRate
	}
	return decimal.NewFromInt(dep).
		Mul(decimal.NewFromFloat(rate)).
		Round(0).
		IntPart()
}

// ComputePayable returns deposit + commission, the sum charged to the client.
func ComputePayable(deposit, commission int64) int64 {
	return clampAmount(deposit) + clampAmount(commission)
}

// Quote bundles the amounts prepared at approval time.
type Quote struct {
	Total       int64 `json:"total_amount"`
	Deposit     int64 `json:"deposit_amount"`
	Commission  int64 `json:"platform_commission"`
	AmountToPay int64 `json:"amount_to_pay"`
}

// PriceQuote computes the full snapshot for a stay.
func PriceQuote(pricePerNight int64, nights int) Quote {
	total := ComputeTotal(pricePerNight, nights)
	deposit := ComputeDeposit(total)
	commission := ComputeCommission(deposit)

	return Quote{
		Total:       total,
		Deposit:     deposit,
		Commission:  commission,
		AmountToPay: ComputePayable(deposit, commission),
	}
}

// PayoutAmount is what the owner receives after check-in: the escrowed
// deposit minus the platform commission, floored at zero.
func PayoutAmount(deposit, commission int64) int64 {
	payout := clampAmount(deposit) - clampAmount(commission)
	if payout < 0 {
		return 0
	}
	return payout
}
