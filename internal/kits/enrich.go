package kits

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/mercascan/mercascan/internal/domain"
)

// enrich fills gaps the model left and normalizes pricing for marketing:
// the discount is snapped to a multiple of 5 within [5,15] and the kit
// price recomputed from it. Bland short names get the dominant category
// types prefixed on.
func (c *Composer) enrich(kits []domain.Kit) []domain.Kit {
	enriched := make([]domain.Kit, 0, len(kits))
	for _, kit := range kits {
		if kit.TargetAudience == "" {
			kit.TargetAudience = "Clientes em geral"
		}
		if kit.MarketingPitch == "" {
			kit.MarketingPitch = fmt.Sprintf("Kit completo com %d produtos essenciais com %.0f%% de desconto!", len(kit.Products), kit.Discount)
		}

		if utf8.RuneCountInString(kit.Name) < 10 {
			types := c.productTypes(kit.Products)
			if len(types) > 0 {
				kit.Name = fmt.Sprintf("Kit %s %s", strings.Join(types, " & "), kit.Name)
			}
		}

		kit.Discount = math.Round(kit.Discount/5) * 5
		if kit.Discount < 5 {
			kit.Discount = 5
		} else if kit.Discount > 15 {
			kit.Discount = 15
		}
		kit.KitPrice = kit.TotalPrice.Mul(oneHundredPercent.Sub(decimal.NewFromFloat(kit.Discount)).Div(oneHundredPercent))

		enriched = append(enriched, kit)
	}
	return enriched
}

// productTypes returns up to two distinct non-fallback categories covering
// the kit's products, in product order.
func (c *Composer) productTypes(products []string) []string {
	var types []string
	for _, name := range products {
		cat := c.classifier.Classify(name)
		if cat == c.classifier.Fallback() {
			continue
		}
		seen := false
		for _, t := range types {
			if t == cat {
				seen = true
				break
			}
		}
		if !seen {
			types = append(types, cat)
		}
		if len(types) == 2 {
			break
		}
	}
	return types
}
