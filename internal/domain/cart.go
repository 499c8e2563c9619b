package domain

// CartLine is one product the user intends to buy. The persisted cart is the
// only owner; every mutation reads the full list, modifies it and writes it
// back.
type CartLine struct {
	ProductID           string  `json:"product_id"`
	ProductName         string  `json:"product_name"`
	UnitPrice           float64 `json:"unit_price"`
	DiscountedUnitPrice float64 `json:"discounted_unit_price,omitempty"`
	Quantity            int     `json:"quantity"`
	AvailableQuantity   int     `json:"available_quantity"`
	SellerID            string  `json:"seller_id"`
	Category            string  `json:"category"`
}

// EffectivePrice is the discounted price when a valid discount is present,
// else the list price.
func (l CartLine) EffectivePrice() float64 {
	if l.DiscountedUnitPrice > 0 && l.DiscountedUnitPrice < l.UnitPrice {
		return l.DiscountedUnitPrice
	}
	return l.UnitPrice
}

// ClampQuantity caps quantity at the last known available stock. Quantity
// never silently exceeds availability.
func (l *CartLine) ClampQuantity() {
	if l.Quantity > l.AvailableQuantity {
		l.Quantity = l.AvailableQuantity
	}
	if l.Quantity < 0 {
		l.Quantity = 0
	}
}

// CoinSelection is the coin-usage choice handed from the cart screen to the
// checkout screen. Not persisted beyond the checkout session.
type CoinSelection struct {
	UseCoins   bool `json:"use_coins"`
	CoinsToUse int  `json:"coins_to_use"`
}

// OrderPricing is derived from the cart lines and coin selection, recomputed
// on demand and never stored independently of its inputs.
type OrderPricing struct {
	Subtotal         float64 `json:"subtotal"`
	Tax              float64 `json:"tax"`
	TotalBeforeCoins float64 `json:"total_before_coins"`
	CoinsApplied     int     `json:"coins_applied"`
	FinalAmount      float64 `json:"final_amount"`
	Savings          float64 `json:"savings"`
}

type PaymentMethod string

const (
	PaymentMethodRazorpay       PaymentMethod = "RAZORPAY"
	PaymentMethodCashOnDelivery PaymentMethod = "CASH_ON_DELIVERY"
)
