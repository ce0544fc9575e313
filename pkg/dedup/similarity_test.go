package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DrSkyle/datasift/pkg/record"
)

func TestSimilarity_Identical(t *testing.T) {
	s, err := Similarity(record.Record{"a": "hello"}, record.Record{"a": "hello"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, s)
}

func TestSimilarity_Different(t *testing.T) {
	s, err := Similarity(record.Record{"a": "hello"}, record.Record{"a": "world"})
	require.NoError(t, err)
	assert.Less(t, s, 1.0)
	assert.Greater(t, s, 0.0)
}

func TestSimilarity_CaseInsensitive(t *testing.T) {
	s, err := Similarity(record.Record{"a": "HELLO"}, record.Record{"a": "hello"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, s)
}

func TestStringSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, StringSimilarity("", ""))
	assert.Equal(t, 0.0, StringSimilarity("abc", ""))
	// kitten -> sitting is the classic distance-3 pair.
	assert.InDelta(t, 4.0/7.0, StringSimilarity("kitten", "sitting"), 1e-9)
	// Multi-byte runes count once.
	assert.InDelta(t, 0.75, StringSimilarity("café", "cafe"), 1e-9)
}

func TestSimilarity_Bounds(t *testing.T) {
	recs := []record.Record{
		{},
		{"a": "x"},
		{"title": "Security vulnerability", "n": 3.0},
		{"long": "zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz"},
	}
	for i := range recs {
		for j := range recs {
			s, err := Similarity(recs[i], recs[j])
			require.NoError(t, err)
			assert.GreaterOrEqual(t, s, 0.0)
			assert.LessOrEqual(t, s, 1.0)
			if i == j {
				assert.Equal(t, 1.0, s)
			}
		}
	}
}

func TestFindSimilarPairs(t *testing.T) {
	recs := []record.Record{
		{"title": "Data breach at TechCorp"},
		{"title": "completely unrelated words"},
		{"title": "Data breach at TechCorp!"},
		{"title": "data breach at techcorp"},
	}

	pairs, err := FindSimilarPairs(recs, 0.9)
	require.NoError(t, err)

	require.Len(t, pairs, 3)
	assert.Equal(t, 0, pairs[0].IndexA)
	assert.Equal(t, 2, pairs[0].IndexB)
	assert.Equal(t, 0, pairs[1].IndexA)
	assert.Equal(t, 3, pairs[1].IndexB)
	assert.Equal(t, 1.0, pairs[1].Score)
	assert.Equal(t, 2, pairs[2].IndexA)
	assert.Equal(t, 3, pairs[2].IndexB)
}

func TestFindSimilarPairs_Empty(t *testing.T) {
	pairs, err := FindSimilarPairs(nil, 0.5)
	require.NoError(t, err)
	assert.Empty(t, pairs)
}
