package domain_test

import (
	"fmt"
	"testing"

	"github.com/jcmexdev/coffee-sagas/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestPriceCents(t *testing.T) {
	tests := []struct {
		drink string
		size  domain.DrinkSize
		want  int
	}{
		{"espresso", domain.SizeS, 300},
		{"espresso", domain.SizeM, 450},
		{"espresso", domain.SizeL, 600},
		{"latte", domain.SizeS, 375},
		{"latte", domain.SizeM, 525},
		{"latte", domain.SizeL, 675},
		{"mocha", domain.SizeM, 525},
		{"Caffe Latte", domain.SizeM, 525},  // keyword match is case-insensitive
		{"ICED MOCHA", domain.SizeL, 675},   // and substring-based
		{"flat white", domain.SizeM, 450},   // no premium keyword
		{"chocolate", domain.SizeS, 300},    // "chocolate" does not contain "mocha"
	}

	p := domain.StandardPricing{}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%s", tt.drink, tt.size), func(t *testing.T) {
			got := p.PriceCents(domain.OrderRequest{OrderID: "1", Drink: tt.drink, Size: tt.size})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPriceCentsIsDeterministic(t *testing.T) {
	p := domain.StandardPricing{}
	req := domain.OrderRequest{OrderID: "1", Drink: "latte", Size: domain.SizeM}
	first := p.PriceCents(req)
	for range 10 {
		assert.Equal(t, first, p.PriceCents(req))
	}
}
