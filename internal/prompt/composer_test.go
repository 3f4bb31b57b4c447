package prompt

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"savannatrails-concierge/internal/model"
	"savannatrails-concierge/internal/retrieval"
)

var testSupport = Support{
	Email:    "hello@savannatrails.travel",
	WhatsApp: "+254 712 345 678",
}

func scoredDoc(title, source string, sim float32, meta map[string]any) retrieval.ScoredDocument {
	doc := model.Document{Title: title, Content: "Some details about " + title + ".", Source: source}
	doc.SetMetadata(meta)
	return retrieval.ScoredDocument{Document: doc, Similarity: sim}
}

func TestFallbackMessage_ContainsContacts(t *testing.T) {
	msg := FallbackMessage(testSupport)
	assert.Contains(t, msg, "hello@savannatrails.travel")
	assert.Contains(t, msg, "+254 712 345 678")
}

func TestCompose_ZeroItems(t *testing.T) {
	out := Compose(nil, testSupport)
	assert.Contains(t, out, "warm, knowledgeable travel specialist")
	assert.Contains(t, out, FallbackMessage(testSupport))
	assert.Contains(t, out, "no relevant documents were found")
	assert.NotContains(t, out, "[1]")
}

func TestCompose_OneItem(t *testing.T) {
	items := []retrieval.ScoredDocument{
		scoredDoc("Maasai Mara Classic Safari", "package", 0.8765, map[string]any{
			"category":    "safari",
			"destination": "Maasai Mara",
			"duration":    "5 days",
			"price":       "USD 2,450",
		}),
	}
	out := Compose(items, testSupport)
	assert.Contains(t, out, "[1] (similarity 0.88) Maasai Mara Classic Safari")
	assert.Contains(t, out, "Category: safari | Destination: Maasai Mara | Duration: 5 days | Price: USD 2,450")
	assert.NotContains(t, out, "[2]")
}

func TestCompose_SixItems(t *testing.T) {
	var items []retrieval.ScoredDocument
	for i := 0; i < 6; i++ {
		items = append(items, scoredDoc(fmt.Sprintf("Doc %d", i+1), "package", 0.9-float32(i)*0.1, nil))
	}
	out := Compose(items, testSupport)
	for i := 1; i <= 6; i++ {
		assert.Contains(t, out, fmt.Sprintf("[%d] ", i))
	}
	assert.NotContains(t, out, "[7]")
}

func TestCompose_DestinationMetadata(t *testing.T) {
	items := []retrieval.ScoredDocument{
		scoredDoc("Zanzibar", "destination", 0.5, map[string]any{
			"country":   "Tanzania",
			"tags":      []any{"beach", "culture", "spice tours"},
			"best_time": "June to October",
		}),
	}
	out := Compose(items, testSupport)
	assert.Contains(t, out, "Country: Tanzania | Tags: beach, culture, spice tours | Best time to visit: June to October")
}

func TestCompose_PartialMetadataSkipsMissingKeys(t *testing.T) {
	items := []retrieval.ScoredDocument{
		scoredDoc("Serengeti Fly-In", "package", 0.5, map[string]any{
			"price": 3100,
		}),
	}
	out := Compose(items, testSupport)
	assert.Contains(t, out, "Price: 3100")
	assert.NotContains(t, out, "Category:")
	assert.NotContains(t, out, "Destination:")
}

func TestCompose_UnknownSourceHasNoSummary(t *testing.T) {
	items := []retrieval.ScoredDocument{
		scoredDoc("Visa FAQ", "faq", 0.5, map[string]any{"country": "Kenya"}),
	}
	out := Compose(items, testSupport)
	require.Contains(t, out, "[1] (similarity 0.50) Visa FAQ")
	assert.NotContains(t, out, "Country:")
}

func TestCompose_IsPure(t *testing.T) {
	items := []retrieval.ScoredDocument{scoredDoc("Doc", "package", 0.42, nil)}
	first := Compose(items, testSupport)
	second := Compose(items, testSupport)
	assert.Equal(t, first, second)
	assert.True(t, strings.Contains(first, "similarity 0.42"))
}
