package market

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mercascan/mercascan/internal/config"
)

func TestClassify_KeywordMatch(t *testing.T) {
	c := NewClassifier(config.DefaultCategories())

	assert.Equal(t, "Móveis", c.Classify("Mesa de Escritório 120cm"))
	assert.Equal(t, "Eletrônicos", c.Classify("SMARTPHONE XYZ 128GB"))
	assert.Equal(t, "Informática", c.Classify("Teclado mecânico RGB"))
	assert.Equal(t, "Decoração", c.Classify("Tapete persa 2x3m"))
}

func TestClassify_FallbackCategory(t *testing.T) {
	c := NewClassifier(config.DefaultCategories())
	assert.Equal(t, "Diversos", c.Classify("Produto genérico sem palavras-chave"))
}

func TestClassify_Deterministic(t *testing.T) {
	c := NewClassifier(config.DefaultCategories())
	first := c.Classify("mesa com tapete")
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, c.Classify("mesa com tapete"))
	}
}

func TestClassifier_CategoriesSorted(t *testing.T) {
	c := NewClassifier(config.CategoriesConfig{
		Keywords: map[string][]string{"B": {"b"}, "A": {"a"}},
		Fallback: "Other",
	})
	assert.Equal(t, []string{"A", "B"}, c.Categories())
}
