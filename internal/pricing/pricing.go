package pricing

import (
	"math"

	d "github.com/farmeazy/farmgate/internal/domain"
)

const (
	// TaxRate is a policy constant, not derived from line items.
	TaxRate = 0.18

	// CoinValue is the fixed conversion: 1 coin = 1 unit of currency.
	CoinValue = 1

	// MinPayableMinorUnits is the gateway floor; payments below 1 major
	// currency unit are never submitted.
	MinPayableMinorUnits = 100
)

// Compute derives the full order pricing from the cart lines and the coin
// selection. Pure and deterministic: same inputs always yield identical
// outputs.
func Compute(lines []d.CartLine, sel d.CoinSelection, availableCoins int) d.OrderPricing {
	var subtotal, savings float64
	for _, line := range lines {
		qty := float64(line.Quantity)
		subtotal += line.EffectivePrice() * qty
		savings += (line.UnitPrice - line.EffectivePrice()) * qty
	}

	tax := subtotal * TaxRate
	totalBeforeCoins := subtotal + tax

	coinsApplied := 0
	if sel.UseCoins {
		coinsApplied = sel.CoinsToUse
		if floor := int(math.Floor(totalBeforeCoins)); coinsApplied > floor {
			coinsApplied = floor
		}
		if coinsApplied > availableCoins {
			coinsApplied = availableCoins
		}
		if coinsApplied < 0 {
			coinsApplied = 0
		}
	}

	finalAmount := totalBeforeCoins - float64(coinsApplied*CoinValue)
	if finalAmount < 0 {
		finalAmount = 0
	}

	return d.OrderPricing{
		Subtotal:         subtotal,
		Tax:              tax,
		TotalBeforeCoins: totalBeforeCoins,
		CoinsApplied:     coinsApplied,
		FinalAmount:      finalAmount,
		Savings:          savings,
	}
}

// MaxApplicable is the coin clamp: min(balance, floor(orderTotal)), never
// negative.
func MaxApplicable(balance int, orderTotal float64) int {
	if balance < 0 {
		balance = 0
	}
	if orderTotal < 0 {
		orderTotal = 0
	}
	floor := int(math.Floor(orderTotal))
	if balance < floor {
		return balance
	}
	return floor
}

// MinorUnits converts a currency amount to minor units for the gateway.
// Internal computation keeps full precision; rounding happens only here.
func MinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
