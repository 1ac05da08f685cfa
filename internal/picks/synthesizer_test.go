package picks

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parlayiq/picks-engine/internal/models"
)

type fakeCompleter struct {
	reply string
	err   error
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	return f.reply, f.err
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestSynthesizeHappyPath(t *testing.T) {
	reply := `Here are my picks:
[{"player": "Aaron Judge", "prop_type": "Home Runs", "recommendation": "over", "confidence": 0.8, "reasoning": "hot streak", "roi_estimate": "6%"}]
Good luck!`

	synth := NewSynthesizer(&fakeCompleter{reply: reply}, quietLogger(), 40)
	strategy := NewPropsStrategy(testProps(), testEvents(), 350, "run1", "test-model")

	preds := synth.Synthesize(context.Background(), Request{
		Strategy: strategy,
		Split:    map[string]int{"MLB": 2},
	})
	require.Len(t, preds, 1)
	assert.Equal(t, 80, preds[0].Confidence)
	assert.Equal(t, 6.0, preds[0].ROIEstimate)
}

func TestSynthesizeLLMFailureYieldsNothing(t *testing.T) {
	synth := NewSynthesizer(&fakeCompleter{err: errors.New("boom")}, quietLogger(), 40)
	strategy := NewPropsStrategy(testProps(), testEvents(), 350, "run1", "test-model")

	preds := synth.Synthesize(context.Background(), Request{Strategy: strategy})
	assert.Empty(t, preds)
}

func TestSynthesizeUnparsableReplyYieldsNothing(t *testing.T) {
	synth := NewSynthesizer(&fakeCompleter{reply: "I refuse to answer in JSON."}, quietLogger(), 40)
	strategy := NewPropsStrategy(testProps(), testEvents(), 350, "run1", "test-model")

	preds := synth.Synthesize(context.Background(), Request{Strategy: strategy})
	assert.Empty(t, preds)
}

func TestSynthesizeDiscardsUnreconcilable(t *testing.T) {
	reply := `[
{"player": "Aaron Judge", "prop_type": "Home Runs", "recommendation": "over", "confidence": 0.8},
{"player": "Invented Player", "prop_type": "Hits", "recommendation": "over", "confidence": 0.9}
]`
	synth := NewSynthesizer(&fakeCompleter{reply: reply}, quietLogger(), 40)
	strategy := NewPropsStrategy(testProps(), testEvents(), 350, "run1", "test-model")

	preds := synth.Synthesize(context.Background(), Request{
		Strategy: strategy,
		Split:    map[string]int{"MLB": 5},
	})
	require.Len(t, preds, 1)
	assert.Contains(t, preds[0].Pick, "Aaron Judge")
}

func TestSynthesizeNoCandidates(t *testing.T) {
	synth := NewSynthesizer(&fakeCompleter{reply: "[]"}, quietLogger(), 40)
	strategy := NewPropsStrategy(nil, nil, 350, "run1", "test-model")

	preds := synth.Synthesize(context.Background(), Request{Strategy: strategy})
	assert.Empty(t, preds)
}

func TestSelectBalanced(t *testing.T) {
	preds := []models.AIPrediction{
		{Sport: "MLB", Pick: "a", Confidence: 90},
		{Sport: "MLB", Pick: "b", Confidence: 70},
		{Sport: "MLB", Pick: "c", Confidence: 80},
		{Sport: "WNBA", Pick: "d", Confidence: 60},
		{Sport: "WNBA", Pick: "e", Confidence: 85},
		{Sport: "NHL", Pick: "f", Confidence: 99},
	}

	out := SelectBalanced(preds, map[string]int{"MLB": 2, "WNBA": 1})
	require.Len(t, out, 3)

	bySport := map[string][]models.AIPrediction{}
	for _, p := range out {
		bySport[p.Sport] = append(bySport[p.Sport], p)
	}
	// Top two MLB picks by confidence, top WNBA pick, NHL excluded.
	require.Len(t, bySport["MLB"], 2)
	assert.Equal(t, "a", bySport["MLB"][0].Pick)
	assert.Equal(t, "c", bySport["MLB"][1].Pick)
	require.Len(t, bySport["WNBA"], 1)
	assert.Equal(t, "e", bySport["WNBA"][0].Pick)
	assert.Empty(t, bySport["NHL"])
}

func TestSelectBalancedEmptySplitPassesThrough(t *testing.T) {
	preds := []models.AIPrediction{{Sport: "MLB", Pick: "a"}}
	assert.Equal(t, preds, SelectBalanced(preds, nil))
}

func TestSelectBalancedShortfallNotBackfilled(t *testing.T) {
	preds := []models.AIPrediction{{Sport: "MLB", Pick: "a", Confidence: 50}}
	out := SelectBalanced(preds, map[string]int{"MLB": 3, "WNBA": 2})
	require.Len(t, out, 1)
}
