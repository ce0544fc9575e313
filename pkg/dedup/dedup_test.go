package dedup

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DrSkyle/datasift/pkg/record"
)

func TestDeduplicate_WholeRecord(t *testing.T) {
	in := []record.Record{
		{"title": "X", "content": "Y"},
		{"title": "X", "content": "Y"},
		{"title": "Z"},
	}

	res, err := Deduplicate(in, Options{})
	require.NoError(t, err)

	assert.Len(t, res.Records, 2)
	assert.Equal(t, 1, res.RemovedCount)
	assert.Equal(t, 3, res.OriginalCount)
	assert.Equal(t, 2, res.FinalCount)
	assert.Equal(t, "Y", res.Records[0]["content"])
	assert.Equal(t, "Z", res.Records[1]["title"])
}

func TestDeduplicate_FirstOccurrenceWins(t *testing.T) {
	first := record.Record{"b": 1.0, "a": 2.0}
	second := record.Record{"a": 2.0, "b": 1.0}

	res, err := Deduplicate([]record.Record{first, second}, Options{})
	require.NoError(t, err)
	require.Len(t, res.Records, 1)

	// Same map instance, not a copy.
	res.Records[0]["marker"] = true
	assert.Equal(t, true, first["marker"])
}

func TestDeduplicate_FieldSubset(t *testing.T) {
	in := []record.Record{
		{"title": "X", "content": "Y", "id": 1.0},
		{"title": "X", "content": "Y", "id": 2.0},
		{"title": "X", "content": "W", "id": 3.0},
	}

	res, err := Deduplicate(in, Options{Fields: []string{"title", "content"}})
	require.NoError(t, err)

	require.Len(t, res.Records, 2)
	assert.Equal(t, 1.0, res.Records[0]["id"])
	assert.Equal(t, 3.0, res.Records[1]["id"])
	assert.Equal(t, 1, res.RemovedCount)
}

func TestDeduplicate_FallbackKey(t *testing.T) {
	in := []record.Record{
		{"title": "Same", "id": 1.0},
		{"title": "Same", "id": 2.0},
		{"name": "Adobe", "id": 3.0},
		{"name": "Adobe", "domain": "adobe.com"},
		{"id": 5.0},
		{"other": "no key"},
		{"other": "no key"},
	}

	res, err := Deduplicate(in, Options{FallbackKey: true})
	require.NoError(t, err)

	assert.Equal(t, 4, res.FinalCount)
	assert.Equal(t, 3, res.RemovedCount)
}

func TestDeduplicate_FieldsBeatFallback(t *testing.T) {
	in := []record.Record{
		{"title": "Same", "content": "a"},
		{"title": "Same", "content": "b"},
	}
	res, err := Deduplicate(in, Options{Fields: []string{"content"}, FallbackKey: true})
	require.NoError(t, err)
	assert.Equal(t, 2, res.FinalCount)
}

func TestDeduplicate_EmptyInput(t *testing.T) {
	res, err := Deduplicate(nil, Options{})
	require.NoError(t, err)
	assert.Nil(t, res.Records)
	assert.Equal(t, 0, res.RemovedCount)

	empty := []record.Record{}
	res, err = Deduplicate(empty, Options{})
	require.NoError(t, err)
	assert.Equal(t, empty, res.Records)
	assert.Equal(t, 0, res.OriginalCount)
}

func TestDeduplicate_Unserializable(t *testing.T) {
	in := []record.Record{{"ok": "x"}, {"bad": math.Inf(1)}}
	_, err := Deduplicate(in, Options{})
	assert.ErrorIs(t, err, record.ErrUnserializable)
}

func TestDeduplicate_InvalidUTF8NotCollapsed(t *testing.T) {
	// Both values would encode to U+FFFD; they must not be treated as equal.
	in := []record.Record{{"a": "\xff"}, {"a": "\xfe"}}
	_, err := Deduplicate(in, Options{})
	assert.ErrorIs(t, err, record.ErrUnserializable)
}

func TestDeduplicate_Conservation(t *testing.T) {
	in := []record.Record{
		{"v": "a"}, {"v": "b"}, {"v": "a"}, {"v": "c"}, {"v": "b"}, {"v": "a"}, {"v": "d"},
	}
	res, err := Deduplicate(in, Options{})
	require.NoError(t, err)

	assert.Equal(t, res.OriginalCount, res.FinalCount+res.RemovedCount)

	var got []string
	for _, r := range res.Records {
		got = append(got, r["v"].(string))
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, got)
}
