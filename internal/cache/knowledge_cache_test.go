package cache

import (
	"testing"

	"github.com/stretchr/testify/require"

	"savannatrails-concierge/internal/model"
)

func TestCandidateRoundTripKeepsEmbedding(t *testing.T) {
	doc := model.Document{
		ID:      7,
		Title:   "Maasai Mara Safari",
		Content: "Five days in the Mara.",
		Source:  "package",
		Type:    "safari",
	}
	doc.SetEmbedding([]float32{0.12, -0.4, 0.88})
	doc.SetMetadata(map[string]any{"category": "safari", "price": "2400 USD"})

	payload, err := encodeCandidates([]model.Document{doc})
	require.NoError(t, err)

	out, err := decodeCandidates(payload)
	require.NoError(t, err)
	require.Len(t, out, 1)

	require.NotEmpty(t, out[0].EmbeddingVector())
	require.Equal(t, doc.EmbeddingVector(), out[0].EmbeddingVector())
	require.Equal(t, doc.MetadataMap(), out[0].MetadataMap())
	require.Equal(t, doc.ID, out[0].ID)
	require.Equal(t, doc.Title, out[0].Title)
	require.Equal(t, doc.Source, out[0].Source)
}

func TestCandidateRoundTripEmptySet(t *testing.T) {
	payload, err := encodeCandidates(nil)
	require.NoError(t, err)

	out, err := decodeCandidates(payload)
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestDecodeCandidatesRejectsGarbage(t *testing.T) {
	_, err := decodeCandidates([]byte("not json"))
	require.Error(t, err)
}
