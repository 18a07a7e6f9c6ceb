package kits

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mercascan/mercascan/internal/domain"
)

// composeHybrid builds kits without the model, in a fixed order: one kit
// per category with enough products, then complementary category pairs,
// then price tiers, then best sellers, then random fill up to MaxKits.
// Category iteration follows the classifier's sorted category order so two
// runs over the same analyses produce the same kits (random fill aside).
func (c *Composer) composeHybrid(valid []domain.Analysis, categories map[string][]domain.Analysis, topByCategory map[string][]domain.Analysis) []domain.Kit {
	kitSize := c.cfg.KitSize
	maxKits := c.cfg.MaxKits
	kits := make([]domain.Kit, 0, maxKits)

	for _, cat := range c.categoryOrder(categories) {
		if len(kits) >= maxKits {
			break
		}
		products := categories[cat]
		if len(products) < kitSize {
			continue
		}
		best := sortByScore(products)[:kitSize]
		kits = append(kits, createKit(
			best,
			fmt.Sprintf("Kit %s Premium", cat),
			fmt.Sprintf("Clientes interessados em %s", cat),
			fmt.Sprintf("Kit completo com %d produtos essenciais de %s", kitSize, cat),
			"Kit composto pelos melhores produtos da categoria",
		))
	}

	for _, pair := range c.classifier.Pairs() {
		if len(kits) >= maxKits {
			break
		}
		first, second := topByCategory[pair[0]], topByCategory[pair[1]]
		if len(first) == 0 || len(second) == 0 {
			continue
		}

		firstCount := min(len(first), kitSize/2+kitSize%2)
		secondCount := min(len(second), kitSize-firstCount)
		if firstCount+secondCount < kitSize && len(first) > firstCount {
			firstCount = min(len(first), kitSize-secondCount)
		}

		combined := append(append([]domain.Analysis{}, first[:firstCount]...), second[:secondCount]...)
		if len(combined) != kitSize {
			continue
		}
		kits = append(kits, createKit(
			combined,
			fmt.Sprintf("Kit %s & %s", pair[0], pair[1]),
			fmt.Sprintf("Clientes interessados em %s e %s", pair[0], pair[1]),
			fmt.Sprintf("Combinação perfeita de produtos de %s e %s com desconto especial", pair[0], pair[1]),
			fmt.Sprintf("Kit misto que combina o melhor de %s e %s", pair[0], pair[1]),
		))
	}

	if len(kits) < maxKits && len(valid) >= kitSize*3 {
		byPrice := make([]domain.Analysis, len(valid))
		copy(byPrice, valid)
		sort.SliceStable(byPrice, func(i, j int) bool {
			return byPrice[i].PriceAnalysis.Metric < byPrice[j].PriceAnalysis.Metric
		})

		tiers := []struct {
			products  []domain.Analysis
			name      string
			audience  string
			pitch     string
			reasoning string
		}{
			{
				byPrice[:kitSize],
				"Kit Iniciante",
				"Clientes iniciantes com orçamento limitado",
				"Kit perfeito para quem está começando, com ótimo custo-benefício",
				"Kit econômico com produtos essenciais para iniciantes",
			},
			{
				byPrice[len(byPrice)/3 : len(byPrice)/3+kitSize],
				"Kit Intermediário",
				"Clientes com experiência média",
				"Solução completa com ótimo equilíbrio entre custo e desempenho",
				"Kit com produtos de qualidade intermediária, excelente custo-benefício",
			},
			{
				byPrice[len(byPrice)-kitSize:],
				"Kit Premium",
				"Clientes exigentes que buscam o melhor",
				"O melhor conjunto de produtos premium com desconto exclusivo",
				"Kit com produtos top de linha para quem busca excelência",
			},
		}
		for _, tier := range tiers {
			if len(kits) >= maxKits {
				break
			}
			kits = append(kits, createKit(tier.products, tier.name, tier.audience, tier.pitch, tier.reasoning))
		}
	}

	if len(kits) < maxKits && len(valid) >= kitSize {
		bySales := make([]domain.Analysis, len(valid))
		copy(bySales, valid)
		sort.SliceStable(bySales, func(i, j int) bool {
			return bySales[i].DemandAnalysis.Metric > bySales[j].DemandAnalysis.Metric
		})
		kits = append(kits, createKit(
			bySales[:kitSize],
			"Kit Mais Vendidos",
			"Todos os clientes",
			"Os produtos mais vendidos e bem avaliados com desconto especial",
			"Kit com os produtos mais populares e bem-sucedidos do mercado",
		))
	}

	for len(kits) < maxKits && len(valid) >= kitSize {
		picked := make([]domain.Analysis, 0, kitSize)
		for _, idx := range c.rng.Perm(len(valid))[:kitSize] {
			picked = append(picked, valid[idx])
		}
		kits = append(kits, createKit(
			picked,
			fmt.Sprintf("Kit Especial %d", len(kits)+1),
			"Clientes diversos",
			"Combinação especial de produtos com desconto exclusivo",
			"Kit variado com produtos de diferentes categorias",
		))
	}

	return kits
}

// categoryOrder lists the taxonomy categories present in the grouping, in
// the classifier's sorted order, with the fallback bucket last.
func (c *Composer) categoryOrder(categories map[string][]domain.Analysis) []string {
	order := make([]string, 0, len(categories))
	for _, cat := range c.classifier.Categories() {
		if _, ok := categories[cat]; ok {
			order = append(order, cat)
		}
	}
	if _, ok := categories[c.classifier.Fallback()]; ok {
		order = append(order, c.classifier.Fallback())
	}
	return order
}

var oneHundredPercent = decimal.NewFromInt(100)

// createKit bundles the given analyses into a kit priced from their market
// averages. The discount scales with value: 10% above R$1000, 8% above
// R$500, 5% otherwise.
func createKit(products []domain.Analysis, name, audience, pitch, reasoning string) domain.Kit {
	names := make([]string, 0, len(products))
	prices := make([]decimal.Decimal, 0, len(products))
	total := decimal.Zero
	var scoreSum float64

	for _, p := range products {
		if p.ProductName != "" {
			names = append(names, p.ProductName)
		}
		price := decimal.NewFromFloat(p.PriceAnalysis.Metric)
		prices = append(prices, price)
		total = total.Add(price)
		scoreSum += p.OverallScore
	}

	var discount float64
	switch {
	case total.GreaterThan(decimal.NewFromInt(1000)):
		discount = 10
	case total.GreaterThan(decimal.NewFromInt(500)):
		discount = 8
	default:
		discount = 5
	}

	var avgScore float64
	if len(products) > 0 {
		avgScore = scoreSum / float64(len(products))
	}

	return domain.Kit{
		Name:             name,
		TargetAudience:   audience,
		Products:         names,
		IndividualPrices: prices,
		TotalPrice:       total,
		KitPrice:         total.Mul(oneHundredPercent.Sub(decimal.NewFromFloat(discount)).Div(oneHundredPercent)),
		Discount:         discount,
		AverageScore:     avgScore,
		Reasoning:        reasoning,
		MarketingPitch:   pitch,
	}
}
