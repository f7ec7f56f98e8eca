package search

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planning-explorer/core/pkg/capabilities/nlpquery"
	"github.com/planning-explorer/core/pkg/config"
)

func TestSuggestions_BasicQueriesAppendSuffixesToQueryText(t *testing.T) {
	searcher := &fakeSearcher{aggsResult: json.RawMessage(`{}`)}
	svc := New(searcher, nil, nil, nil, config.SearchConfig{}, nil)

	result, err := svc.Suggestions(context.Background(), "extension", 10)
	require.NoError(t, err)
	assert.Contains(t, result.Queries, "extension extension")
	assert.Contains(t, result.Queries, "extension new build")
}

func TestSuggestions_SmartSuggestionsTruncatedToHalfLimit(t *testing.T) {
	searcher := &fakeSearcher{aggsResult: json.RawMessage(`{}`)}
	parser := &fakeParser{parsed: &nlpquery.ParsedQuery{
		Suggestions: []string{"a", "b", "c", "d", "e", "f"},
	}}
	svc := New(searcher, nil, parser, nil, config.SearchConfig{}, nil)

	result, err := svc.Suggestions(context.Background(), "q", 10)
	require.NoError(t, err)
	assert.Len(t, result.SmartSuggestions, 5)
}

func TestSuggestions_NoParserLeavesSmartSuggestionsEmpty(t *testing.T) {
	searcher := &fakeSearcher{aggsResult: json.RawMessage(`{}`)}
	svc := New(searcher, nil, nil, nil, config.SearchConfig{}, nil)

	result, err := svc.Suggestions(context.Background(), "q", 10)
	require.NoError(t, err)
	assert.Empty(t, result.SmartSuggestions)
}

func TestSuggestions_AuthorityAndDevelopmentTypeCompletionsFromTermsAggs(t *testing.T) {
	searcher := &fakeSearcher{aggsResult: json.RawMessage(`{
		"authority_suggestions": {"buckets": [{"key": "camden"}, {"key": "barnet"}]},
		"development_type_suggestions": {"buckets": [{"key": "residential"}]}
	}`)}
	svc := New(searcher, nil, nil, nil, config.SearchConfig{}, nil)

	result, err := svc.Suggestions(context.Background(), "cam", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"camden", "barnet"}, result.Authorities)
	assert.Equal(t, []string{"residential"}, result.DevelopmentTypes)
}

func TestBasicQueries_ProducesOneEntryPerSuffix(t *testing.T) {
	queries := basicQueries("shop")
	assert.Len(t, queries, len(basicQuerySuffixes))
	assert.Equal(t, "shop extension", queries[0])
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, []string{}, truncate([]string{"a", "b"}, 0))
	assert.Equal(t, []string{"a", "b"}, truncate([]string{"a", "b"}, 5))
	assert.Equal(t, []string{"a"}, truncate([]string{"a", "b"}, 1))
}
