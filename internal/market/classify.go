package market

import (
	"sort"
	"strings"

	"github.com/mercascan/mercascan/internal/config"
)

// Classifier assigns products to taxonomy categories by keyword match.
type Classifier struct {
	taxonomy config.CategoriesConfig
	order    []string
}

// NewClassifier builds a classifier over the configured taxonomy. Categories
// are probed in name order so classification is deterministic regardless of
// map iteration.
func NewClassifier(taxonomy config.CategoriesConfig) *Classifier {
	order := make([]string, 0, len(taxonomy.Keywords))
	for name := range taxonomy.Keywords {
		order = append(order, name)
	}
	sort.Strings(order)
	return &Classifier{taxonomy: taxonomy, order: order}
}

// Classify returns the first category whose keyword list matches the product
// name, or the fallback category when nothing matches.
func (c *Classifier) Classify(productName string) string {
	name := strings.ToLower(productName)
	for _, category := range c.order {
		for _, keyword := range c.taxonomy.Keywords[category] {
			if strings.Contains(name, keyword) {
				return category
			}
		}
	}
	return c.taxonomy.Fallback
}

// Pairs returns the configured complementary category pairs.
func (c *Classifier) Pairs() [][2]string {
	return c.taxonomy.Pairs
}

// Categories returns the category names in probe order.
func (c *Classifier) Categories() []string {
	return c.order
}

// Fallback returns the category assigned when no keyword matches.
func (c *Classifier) Fallback() string {
	return c.taxonomy.Fallback
}
