package record

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

func TestFingerprint_KeyOrderInvariant(t *testing.T) {
	a := Record{"title": "X", "content": "Y", "score": 3.0, "tags": []any{"a", "b"}}
	b := Record{"tags": []any{"a", "b"}, "score": 3.0, "content": "Y", "title": "X"}

	fa, err := Fingerprint(a)
	require.NoError(t, err)
	fb, err := Fingerprint(b)
	require.NoError(t, err)

	assert.Equal(t, fa, fb)
	assert.Len(t, fa, 32)
}

func TestFingerprint_NestedKeysSorted(t *testing.T) {
	a := Record{"meta": map[string]any{"z": 1.0, "a": 2.0}}
	s, err := CanonicalString(a)
	require.NoError(t, err)
	assert.Equal(t, `{"meta":{"a":2,"z":1}}`, s)
}

func TestFingerprint_EmptyRecord(t *testing.T) {
	f, err := Fingerprint(Record{})
	require.NoError(t, err)
	assert.Equal(t, md5Hex("{}"), f)

	fnil, err := Fingerprint(nil)
	require.NoError(t, err)
	assert.Equal(t, f, fnil)
}

func TestFingerprint_DifferentContent(t *testing.T) {
	fa, _ := Fingerprint(Record{"title": "X"})
	fb, _ := Fingerprint(Record{"title": "Z"})
	assert.NotEqual(t, fa, fb)
}

func TestFingerprint_Unserializable(t *testing.T) {
	_, err := Fingerprint(Record{"bad": math.NaN()})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnserializable))

	cyclic := map[string]any{}
	cyclic["self"] = cyclic
	_, err = Fingerprint(Record{"loop": cyclic})
	assert.ErrorIs(t, err, ErrUnserializable)
}

func TestFingerprint_InvalidUTF8(t *testing.T) {
	_, err := Fingerprint(Record{"a": "\xff"})
	assert.ErrorIs(t, err, ErrUnserializable)

	_, err = Fingerprint(Record{"nested": []any{map[string]any{"k": "ok\xfe"}}})
	assert.ErrorIs(t, err, ErrUnserializable)

	_, err = Fingerprint(Record{"\xfe": "value"})
	assert.ErrorIs(t, err, ErrUnserializable)

	// Valid multi-byte text is fine.
	_, err = Fingerprint(Record{"a": "café ☕"})
	assert.NoError(t, err)
}

func TestCanonical_NoHTMLEscaping(t *testing.T) {
	s, err := CanonicalString(Record{"body": "<b>a & b</b>"})
	require.NoError(t, err)
	assert.Equal(t, `{"body":"<b>a & b</b>"}`, s)
}

func TestFieldFingerprint(t *testing.T) {
	r := Record{"title": "X", "content": "Y", "noise": "ignored"}

	f, err := FieldFingerprint(r, []string{"title", "content"})
	require.NoError(t, err)
	assert.Equal(t, md5Hex("X\x00Y"), f)

	other := Record{"title": "X", "content": "Y", "noise": "different"}
	g, _ := FieldFingerprint(other, []string{"title", "content"})
	assert.Equal(t, f, g)

	missing, _ := FieldFingerprint(Record{"title": "X"}, []string{"title", "content"})
	assert.Equal(t, md5Hex("X\x00"), missing)
}

func TestStringValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"", ""},
		{"abc", "abc"},
		{false, ""},
		{true, "true"},
		{0.0, ""},
		{42.0, "42"},
		{1.5, "1.5"},
		{7, "7"},
		{[]any{"a", 1.0}, `["a",1]`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StringValue(tt.in), "StringValue(%v)", tt.in)
	}
}

func TestClone_IsDeep(t *testing.T) {
	orig := Record{
		"tags": []any{"a"},
		"meta": map[string]any{"k": "v"},
	}
	c := Clone(orig)
	c["tags"].([]any)[0] = "changed"
	c["meta"].(map[string]any)["k"] = "changed"

	assert.Equal(t, "a", orig["tags"].([]any)[0])
	assert.Equal(t, "v", orig["meta"].(map[string]any)["k"])
}

func TestDecode(t *testing.T) {
	recs, err := Decode([]byte(`[{"title":"X"},{"id":1}]`))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "X", recs[0]["title"])
	assert.Equal(t, 1.0, recs[1]["id"])

	_, err = Decode([]byte(`{"not":"a list"}`))
	assert.Error(t, err)
}

func TestDisplay(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"a<b", "a<b"},
		{false, "false"},
		{0.0, "0"},
		{152445165.0, "152445165"},
		{[]any{"x", 1.0}, `["x",1]`},
		{map[string]any{"z": 1.0, "a": "b"}, `{"a":"b","z":1}`},
	}
	for _, tt := range tests {
		got, err := Display(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}
