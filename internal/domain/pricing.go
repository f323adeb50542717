package domain

import "strings"

// Pricer computes the amount to charge for an order. Implementations must be
// pure and deterministic: same input, same output, on every call — including
// a replay after a crash. Anything non-deterministic here would desync the
// replayed workflow from its journaled history.
type Pricer interface {
	PriceCents(req OrderRequest) int
}

// StandardPricing is the default policy: a base price per size plus a flat
// surcharge for specialty drinks.
type StandardPricing struct{}

var basePriceCents = map[DrinkSize]int{
	SizeS: 300,
	SizeM: 450,
	SizeL: 600,
}

var surchargeKeywords = []string{"latte", "mocha"}

const surchargeCents = 75

func (StandardPricing) PriceCents(req OrderRequest) int {
	price := basePriceCents[req.Size]
	drink := strings.ToLower(req.Drink)
	for _, kw := range surchargeKeywords {
		if strings.Contains(drink, kw) {
			return price + surchargeCents
		}
	}
	return price
}
