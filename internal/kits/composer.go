package kits

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/mercascan/mercascan/internal/config"
	"github.com/mercascan/mercascan/internal/domain"
	"github.com/mercascan/mercascan/internal/llm"
	"github.com/mercascan/mercascan/internal/market"
)

// aiPromptLimit caps how many products the model sees. More than this adds
// tokens without adding kit variety.
const aiPromptLimit = 20

// topPerCategory caps the per-category shortlist used by the hybrid stages.
const topPerCategory = 5

const kitSystemPrompt = "Você é um especialista em estratégia de vendas para " +
	"e-commerce, especializado em criar kits de produtos que maximizam as " +
	"vendas e a rentabilidade."

// Composer builds product kits from scored analyses. When a completer is
// available and enabled it asks the model first and falls back to the
// deterministic hybrid strategy when the response is unusable or too thin.
type Composer struct {
	cfg        config.KitsConfig
	classifier *market.Classifier
	completer  llm.Completer // nil disables the AI path
	log        zerolog.Logger
	rng        *rand.Rand
}

func NewComposer(cfg config.KitsConfig, classifier *market.Classifier, completer llm.Completer, log zerolog.Logger) *Composer {
	return &Composer{
		cfg:        cfg,
		classifier: classifier,
		completer:  completer,
		log:        log.With().Str("component", "kits").Logger(),
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Compose returns up to MaxKits kits of exactly KitSize products each.
// Products whose analysis found no market data are excluded up front; with
// fewer than KitSize products left there is nothing to bundle and the
// result is empty.
func (c *Composer) Compose(ctx context.Context, analyses []domain.Analysis) []domain.Kit {
	valid := make([]domain.Analysis, 0, len(analyses))
	for _, a := range analyses {
		if a.Found {
			valid = append(valid, a)
		}
	}
	if len(valid) < c.cfg.KitSize {
		c.log.Warn().Int("products", len(valid)).Msg("not enough products to build kits")
		return nil
	}

	categories := c.categorize(valid)
	topByCategory := make(map[string][]domain.Analysis, len(categories))
	for cat, products := range categories {
		sorted := sortByScore(products)
		topByCategory[cat] = sorted[:min(topPerCategory, len(sorted))]
	}

	if c.cfg.UseAI && c.completer != nil {
		kits, err := c.composeWithAI(ctx, valid)
		if err != nil {
			c.log.Warn().Err(err).Msg("AI kit generation failed, using hybrid strategy")
		} else {
			enriched := c.enrich(kits)
			if float64(len(enriched)) >= c.cfg.AIAcceptRatio*float64(c.cfg.MaxKits) {
				c.log.Info().Int("kits", len(enriched)).Msg("kits generated by model")
				return enriched
			}
			c.log.Warn().
				Int("kits", len(enriched)).
				Msg("model returned too few kits, using hybrid strategy")
		}
	}

	return c.composeHybrid(valid, categories, topByCategory)
}

// categorize groups analyses by taxonomy category, preserving input order
// within each group.
func (c *Composer) categorize(analyses []domain.Analysis) map[string][]domain.Analysis {
	groups := make(map[string][]domain.Analysis)
	for _, a := range analyses {
		cat := c.classifier.Classify(a.ProductName)
		groups[cat] = append(groups[cat], a)
	}
	return groups
}

func (c *Composer) composeWithAI(ctx context.Context, valid []domain.Analysis) ([]domain.Kit, error) {
	top := sortByScore(valid)
	if len(top) > aiPromptLimit {
		top = top[:aiPromptLimit]
	}

	response, err := c.completer.Complete(ctx, kitSystemPrompt, c.buildPrompt(top))
	if err != nil {
		return nil, err
	}

	raw, err := repairAndDecode(response)
	if err != nil {
		return nil, err
	}
	return c.resolveKits(raw, top), nil
}

func (c *Composer) buildPrompt(top []domain.Analysis) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Como especialista em estratégia de vendas, crie %d kits diferentes de produtos que maximizem as vendas e a rentabilidade.\n\n", c.cfg.MaxKits)

	sb.WriteString("PRODUTOS DISPONÍVEIS:\n")
	for i, a := range top {
		fmt.Fprintf(&sb, "ID: %d, Nome: %s, Categoria: %s, Preço: R$ %.2f, Score: %.1f, Vendas: %.0f\n",
			i+1, a.ProductName, c.classifier.Classify(a.ProductName),
			a.PriceAnalysis.Metric, a.OverallScore, a.DemandAnalysis.Metric)
	}

	fmt.Fprintf(&sb, `
REGRAS PARA CRIAÇÃO DE KITS:
1. Cada kit deve conter exatamente %d produtos
2. Os produtos em um kit devem ser complementares e fazer sentido juntos
3. Priorize produtos com maior pontuação e demanda
4. Crie variedade entre os kits, sem repetir os mesmos produtos
5. Considere diferentes perfis de clientes
6. Aplique um desconto entre 5-15%% sobre o valor total, maior para kits de maior valor
7. O nome do kit deve ser atrativo e comunicar valor

FORMATO DA RESPOSTA:
Retorne um array JSON com %d kits, cada um no formato:

[
  {
    "kit_name": "Nome do Kit",
    "target_audience": "Público-alvo",
    "products": [1, 5, 7],
    "individual_prices": [100.0, 200.0, 300.0],
    "total_price": 600.0,
    "kit_price": 540.0,
    "discount": 10,
    "average_score": 7.5,
    "reasoning": "Por que esse kit funcionaria bem",
    "marketing_pitch": "Texto curto para anunciar este kit"
  }
]

Retorne apenas o JSON, sem texto adicional.
`, c.cfg.KitSize, c.cfg.MaxKits)

	return sb.String()
}

// resolveKits turns decoded model kits into domain kits. Product IDs are
// 1-based indexes into top; anything out of range keeps a placeholder name.
// Missing prices, totals and scores are recomputed from the analyses rather
// than rejected, but a kit with the wrong number of products is dropped:
// every kit carries exactly KitSize products.
func (c *Composer) resolveKits(raw []rawKit, top []domain.Analysis) []domain.Kit {
	kits := make([]domain.Kit, 0, len(raw))
	for _, rk := range raw {
		if len(rk.Products) != c.cfg.KitSize {
			c.log.Warn().
				Str("kit", rk.Name).
				Int("products", len(rk.Products)).
				Msg("model kit has the wrong number of products, dropped")
			continue
		}

		names := make([]string, 0, len(rk.Products))
		for _, pid := range rk.Products {
			if pid >= 1 && pid <= len(top) {
				names = append(names, top[pid-1].ProductName)
			} else {
				names = append(names, fmt.Sprintf("Produto %d", pid))
			}
		}

		prices := make([]decimal.Decimal, 0, len(rk.Products))
		if len(rk.IndividualPrices) == len(rk.Products) {
			for _, p := range rk.IndividualPrices {
				prices = append(prices, decimal.NewFromFloat(p))
			}
		} else {
			for _, pid := range rk.Products {
				if pid >= 1 && pid <= len(top) {
					prices = append(prices, decimal.NewFromFloat(top[pid-1].PriceAnalysis.Metric))
				} else {
					prices = append(prices, decimal.Zero)
				}
			}
		}

		total := decimal.Zero
		if rk.TotalPrice != nil {
			total = decimal.NewFromFloat(*rk.TotalPrice)
		} else {
			for _, p := range prices {
				total = total.Add(p)
			}
		}

		discount := 5.0
		if rk.Discount != nil {
			discount = *rk.Discount
		}

		kitPrice := total.Mul(decimal.NewFromFloat(1 - discount/100))
		if rk.KitPrice != nil {
			kitPrice = decimal.NewFromFloat(*rk.KitPrice)
		}

		avgScore := 0.0
		if rk.AverageScore != nil {
			avgScore = *rk.AverageScore
		} else {
			var sum float64
			var n int
			for _, pid := range rk.Products {
				if pid >= 1 && pid <= len(top) {
					sum += top[pid-1].OverallScore
					n++
				}
			}
			if n > 0 {
				avgScore = sum / float64(n)
			}
		}

		name := rk.Name
		if name == "" {
			name = fmt.Sprintf("Kit Premium %d", len(kits)+1)
		}
		audience := rk.TargetAudience
		if audience == "" {
			audience = "Clientes gerais"
		}
		pitch := rk.MarketingPitch
		if pitch == "" {
			pitch = fmt.Sprintf("Kit completo com %d produtos essenciais com %.0f%% de desconto!", len(names), discount)
		}
		reasoning := rk.Reasoning
		if reasoning == "" {
			reasoning = "Kit com produtos complementares"
		}

		kits = append(kits, domain.Kit{
			Name:             name,
			TargetAudience:   audience,
			Products:         names,
			IndividualPrices: prices,
			TotalPrice:       total,
			KitPrice:         kitPrice,
			Discount:         discount,
			AverageScore:     avgScore,
			Reasoning:        reasoning,
			MarketingPitch:   pitch,
		})
	}
	return kits
}

// sortByScore returns a copy of analyses ordered by overall score, best
// first. Ties keep input order.
func sortByScore(analyses []domain.Analysis) []domain.Analysis {
	sorted := make([]domain.Analysis, len(analyses))
	copy(sorted, analyses)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].OverallScore > sorted[j].OverallScore
	})
	return sorted
}
