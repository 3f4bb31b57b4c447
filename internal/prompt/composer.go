// Package prompt assembles the grounded system prompt for the concierge and
// owns the verbatim fallback sentence shared with the orchestrator.
package prompt

import (
	"fmt"
	"strings"

	"savannatrails-concierge/internal/retrieval"
)

// Support holds the agency's human contact channels.
type Support struct {
	Email    string
	WhatsApp string
}

// FallbackMessage is the exact sentence the assistant uses when it cannot
// answer from context. The orchestrator compares replies against it to decide
// whether to mark a handoff, so it must stay byte-identical everywhere.
func FallbackMessage(s Support) string {
	return fmt.Sprintf(
		"I'm not able to answer that confidently right now, but our travel specialists would love to help! Reach us at %s or on WhatsApp at %s.",
		s.Email, s.WhatsApp,
	)
}

// Compose builds the system prompt from the ranked context items. It is pure
// string composition with no side effects.
func Compose(items []retrieval.ScoredDocument, s Support) string {
	var b strings.Builder

	b.WriteString("You are Amara, a warm, knowledgeable travel specialist for Savanna Trails. ")
	b.WriteString("Answer the traveller's question using only the context below. ")
	b.WriteString("Be concise, friendly, and concrete about destinations, packages, prices, and timing. ")
	b.WriteString("If the context does not contain enough information to answer confidently, reply with exactly this sentence and nothing else:\n")
	b.WriteString(FallbackMessage(s))
	b.WriteString("\n\nContext:\n")

	if len(items) == 0 {
		b.WriteString("(no relevant documents were found for this question)\n")
		return b.String()
	}

	for i, item := range items {
		doc := item.Document
		fmt.Fprintf(&b, "[%d] (similarity %.2f) %s\n%s\n", i+1, item.Similarity, doc.Title, doc.Content)
		if summary := metadataSummary(doc.Source, doc.MetadataMap()); summary != "" {
			b.WriteString(summary)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// metadataSummary renders the category-specific fields a traveller would ask
// about. Unknown sources render nothing rather than erroring.
func metadataSummary(source string, meta map[string]any) string {
	switch source {
	case "package":
		return joinFields(meta, []fieldSpec{
			{"category", "Category"},
			{"destination", "Destination"},
			{"duration", "Duration"},
			{"price", "Price"},
		})
	case "destination":
		return joinFields(meta, []fieldSpec{
			{"country", "Country"},
			{"tags", "Tags"},
			{"best_time", "Best time to visit"},
		})
	default:
		return ""
	}
}

type fieldSpec struct {
	key   string
	label string
}

func joinFields(meta map[string]any, fields []fieldSpec) string {
	var parts []string
	for _, f := range fields {
		val, ok := meta[f.key]
		if !ok || val == nil {
			continue
		}
		parts = append(parts, f.label+": "+renderValue(val))
	}
	return strings.Join(parts, " | ")
}

func renderValue(val any) string {
	if list, ok := val.([]any); ok {
		items := make([]string, 0, len(list))
		for _, v := range list {
			items = append(items, fmt.Sprintf("%v", v))
		}
		return strings.Join(items, ", ")
	}
	return fmt.Sprintf("%v", val)
}
