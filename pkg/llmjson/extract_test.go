package llmjson

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractArrayFromProse(t *testing.T) {
	reply := `Sure! Here are the picks you asked for:

[{"player": "Aaron Judge", "line": 1.5}, {"player": "Juan Soto", "line": 0.5}]

Let me know if you want more detail.`

	var picks []map[string]interface{}
	require.NoError(t, ExtractArray(reply, &picks))
	require.Len(t, picks, 2)
	assert.Equal(t, "Aaron Judge", picks[0]["player"])
	assert.Equal(t, 0.5, picks[1]["line"])
}

func TestExtractArrayTrailingCommaCleanup(t *testing.T) {
	reply := `[{"query": "Judge home runs last 10",}, {"query": "Yankees record",},]`

	var queries []map[string]string
	require.NoError(t, ExtractArray(reply, &queries))
	require.Len(t, queries, 2)
	assert.Equal(t, "Yankees record", queries[1]["query"])
}

func TestExtractObjectFromProse(t *testing.T) {
	reply := "Here's the plan: {\"stats_queries\": [{\"query\": \"q1\", \"priority\": \"high\"}]} done."

	var plan struct {
		StatsQueries []struct {
			Query    string `json:"query"`
			Priority string `json:"priority"`
		} `json:"stats_queries"`
	}
	require.NoError(t, ExtractObject(reply, &plan))
	require.Len(t, plan.StatsQueries, 1)
	assert.Equal(t, "high", plan.StatsQueries[0].Priority)
}

func TestExtractArrayNoBlock(t *testing.T) {
	var out []string
	err := ExtractArray("I could not produce any picks today.", &out)
	require.Error(t, err)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Contains(t, perr.Reason, "no")
}

func TestExtractArrayUndecodableAfterCleanup(t *testing.T) {
	var out []string
	err := ExtractArray(`[this is not json]`, &out)
	require.Error(t, err)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Error(t, perr.Err)
}

func TestExtractObjectMismatchedBrackets(t *testing.T) {
	var out map[string]string
	err := ExtractObject("} backwards {", &out)
	require.Error(t, err)
}
