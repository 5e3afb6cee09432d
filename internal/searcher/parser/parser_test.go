package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-matcher-engine/pkg/errors"
)

func newParser(op Operator) *Parser {
	return New(tokenizer.New(false), op)
}

func TestParseDefaultOperator(t *testing.T) {
	plan, err := newParser(OperatorOr).Parse("golang search")
	require.NoError(t, err)
	assert.Empty(t, plan.Required)
	assert.Len(t, plan.Optional, 2)
	assert.Equal(t, "golang search", plan.String())

	plan, err = newParser(OperatorAnd).Parse("golang search")
	require.NoError(t, err)
	assert.Len(t, plan.Required, 2)
	assert.Equal(t, "+golang +search", plan.String())
}

func TestParseOperatorWordOverridesDefault(t *testing.T) {
	plan, err := newParser(OperatorOr).Parse("golang AND search")
	require.NoError(t, err)
	assert.Equal(t, OperatorAnd, plan.Operator)
	assert.Equal(t, "+golang +search", plan.String())
}

func TestParseModifiers(t *testing.T) {
	plan, err := newParser(OperatorOr).Parse("+golang engine -java NOT python go|rust^2 search^1.5")
	require.NoError(t, err)

	assert.Equal(t, []Group{{{Text: "golang", Boost: 1}}}, plan.Required)
	require.Len(t, plan.Optional, 3)
	assert.Equal(t, Group{{Text: "go", Boost: 2}, {Text: "rust", Boost: 2}}, plan.Optional[1])
	assert.Equal(t, []string{"java", "python"}, plan.Excluded)
	assert.Equal(t, "+golang (go^2|rust^2) engine search^1.5 -java -python", plan.String())
	assert.Equal(t, []string{"engine", "go", "golang", "rust", "search"}, plan.Terms())
	assert.False(t, plan.Empty())
}

func TestParseCanonicalFormIgnoresOrder(t *testing.T) {
	p := newParser(OperatorOr)
	a, err := p.Parse("rust|go golang -java")
	require.NoError(t, err)
	b, err := p.Parse("NOT java golang go|rust")
	require.NoError(t, err)
	assert.Equal(t, a.String(), b.String())
}

func TestParseStopWordsOnly(t *testing.T) {
	plan, err := newParser(OperatorOr).Parse("the of")
	require.NoError(t, err)
	assert.True(t, plan.Empty())
	assert.Equal(t, "", plan.String())

	plan, err = newParser(OperatorOr).Parse("-golang")
	require.NoError(t, err)
	assert.True(t, plan.Empty(), "exclusions alone match nothing")
}

func TestParseMultiTokenWord(t *testing.T) {
	plan, err := newParser(OperatorOr).Parse("+state-of-art")
	require.NoError(t, err)
	assert.Equal(t, "+art +state", plan.String())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"dangling plus", "golang +"},
		{"dangling minus", "- golang"},
		{"bad boost", "golang^x"},
		{"negative boost", "golang^-1"},
		{"zero boost", "golang^0"},
		{"trailing not", "golang NOT"},
		{"not before operator", "golang NOT OR search"},
		{"too many terms", manyTerms(MaxTerms+1)},
	}
	p := newParser(OperatorOr)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Parse(tt.query)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrInvalidQuery)
			assert.Equal(t, 400, apperrors.HTTPStatusCode(err))
		})
	}
}

func manyTerms(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = "w" + strings.Repeat("x", i+1)
	}
	return strings.Join(words, " ")
}

func BenchmarkParse(b *testing.B) {
	p := New(tokenizer.New(true), OperatorOr)
	queries := []struct {
		name  string
		query string
	}{
		{"simple", "distributed systems"},
		{"boolean_and", "search AND analytics AND platform"},
		{"with_not", "distributed NOT monolithic"},
		{"mixed", "+search ranking^2 cache|breaker -deprecated"},
		{"long", "distributed search analytics platform indexing query processing ranking caching sharding"},
	}
	for _, q := range queries {
		b.Run(q.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := p.Parse(q.query); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
