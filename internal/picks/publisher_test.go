package picks

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/parlayiq/picks-engine/internal/models"
)

type fakeStore struct {
	events   map[string]*models.SportsEvent // keyed "home|away"
	inserted []models.AIPrediction
	failN    int
}

func (f *fakeStore) EventForMatchup(ctx context.Context, homeTeam, awayTeam, sport string) (*models.SportsEvent, error) {
	ev, ok := f.events[homeTeam+"|"+awayTeam]
	if !ok {
		return nil, nil
	}
	return ev, nil
}

func (f *fakeStore) InsertPredictions(ctx context.Context, rows []models.AIPrediction) (int, int) {
	stored := 0
	failed := 0
	for i, row := range rows {
		if i < f.failN {
			failed++
			continue
		}
		f.inserted = append(f.inserted, row)
		stored++
	}
	return stored, failed
}

func scheduledStore() *fakeStore {
	return &fakeStore{events: map[string]*models.SportsEvent{
		"New York Yankees|Boston Red Sox": {
			ID:        "ev1",
			HomeTeam:  "New York Yankees",
			AwayTeam:  "Boston Red Sox",
			Sport:     "MLB",
			StartTime: time.Date(2026, 8, 31, 23, 0, 0, 0, time.UTC),
		},
	}}
}

func TestPublishStoresValidatedPicks(t *testing.T) {
	st := scheduledStore()
	pub := NewPublisher(st, quietLogger(), false)

	result, err := pub.Publish(context.Background(), []models.AIPrediction{{
		MatchTeams: "Boston Red Sox @ New York Yankees",
		Sport:      "MLB",
		Pick:       "Aaron Judge Over 0.5 Home Runs",
		Reasoning:  "per StatMuse he has homered in 4 straight",
	}})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Submitted)
	assert.Equal(t, 1, result.Stored)
	assert.Equal(t, 0, result.Errors)

	require.Len(t, st.inserted, 1)
	row := st.inserted[0]
	// Event time is anchored to the schedule, not the model's text.
	assert.Equal(t, time.Date(2026, 8, 31, 23, 0, 0, 0, time.UTC), row.EventTime)
	assert.NotContains(t, row.Reasoning, "StatMuse")
	assert.Contains(t, row.Reasoning, "our stats engine")
}

func TestPublishHallucinatedGameFailsWholeBatch(t *testing.T) {
	st := scheduledStore()
	pub := NewPublisher(st, quietLogger(), false)

	_, err := pub.Publish(context.Background(), []models.AIPrediction{
		{MatchTeams: "Boston Red Sox @ New York Yankees", Sport: "MLB"},
		{MatchTeams: "Fake City FC @ Imaginary United", Sport: "MLB"},
	})
	require.Error(t, err)

	var hallErr *ErrHallucinatedGame
	require.ErrorAs(t, err, &hallErr)
	assert.Equal(t, "Fake City FC @ Imaginary United", hallErr.MatchTeams)
	assert.Empty(t, st.inserted)
}

func TestPublishCrossSportRejectedPerRow(t *testing.T) {
	st := scheduledStore()
	pub := NewPublisher(st, quietLogger(), false)

	result, err := pub.Publish(context.Background(), []models.AIPrediction{
		// WNBA franchise names on a pick claiming MLB.
		{MatchTeams: "Las Vegas Aces @ New York Liberty", Sport: "MLB"},
		{MatchTeams: "Boston Red Sox @ New York Yankees", Sport: "MLB"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Submitted)
	assert.Equal(t, 1, result.Stored)
	assert.Equal(t, 1, result.Errors)
}

func TestPublishTestModeStoresNothing(t *testing.T) {
	st := scheduledStore()
	pub := NewPublisher(st, quietLogger(), true)

	result, err := pub.Publish(context.Background(), []models.AIPrediction{{
		MatchTeams: "Boston Red Sox @ New York Yankees",
		Sport:      "MLB",
	}})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Stored)
	assert.Empty(t, st.inserted)
}

func TestPublishCountsInsertFailures(t *testing.T) {
	st := scheduledStore()
	st.failN = 1
	pub := NewPublisher(st, quietLogger(), false)

	result, err := pub.Publish(context.Background(), []models.AIPrediction{
		{MatchTeams: "Boston Red Sox @ New York Yankees", Sport: "MLB"},
		{MatchTeams: "Boston Red Sox @ New York Yankees", Sport: "MLB"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Stored)
	assert.Equal(t, 1, result.Errors)
}

func TestPublishScrubsMetadata(t *testing.T) {
	st := scheduledStore()
	pub := NewPublisher(st, quietLogger(), false)

	meta, _ := json.Marshal(models.PredictionMetadata{
		ResearchSources: []string{"StatMuse query: Judge HR last 10"},
		KeyFactors:      []string{"statmuse shows a hot streak"},
	})
	_, err := pub.Publish(context.Background(), []models.AIPrediction{{
		MatchTeams: "Boston Red Sox @ New York Yankees",
		Sport:      "MLB",
		Metadata:   datatypes.JSON(meta),
	}})
	require.NoError(t, err)

	require.Len(t, st.inserted, 1)
	var stored models.PredictionMetadata
	require.NoError(t, json.Unmarshal(st.inserted[0].Metadata, &stored))
	assert.NotContains(t, stored.ResearchSources[0], "StatMuse")
	assert.NotContains(t, stored.KeyFactors[0], "statmuse")
}

func TestParseMatchup(t *testing.T) {
	tests := []struct {
		input      string
		home, away string
		wantErr    bool
	}{
		{"Boston Red Sox @ New York Yankees", "New York Yankees", "Boston Red Sox", false},
		{"New York Yankees vs Boston Red Sox", "New York Yankees", "Boston Red Sox", false},
		{"New York Yankees vs. Boston Red Sox", "New York Yankees", "Boston Red Sox", false},
		{"just one team", "", "", true},
		{"", "", "", true},
	}
	for _, tt := range tests {
		home, away, err := ParseMatchup(tt.input)
		if tt.wantErr {
			assert.Error(t, err, tt.input)
			continue
		}
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.home, home)
		assert.Equal(t, tt.away, away)
	}
}

func TestScrubBrands(t *testing.T) {
	out := ScrubBrands("Per StatMuse and statmuse data, STATMUSE agrees.")
	assert.NotContains(t, out, "StatMuse")
	assert.NotContains(t, out, "statmuse")
	assert.NotContains(t, out, "STATMUSE")
}
