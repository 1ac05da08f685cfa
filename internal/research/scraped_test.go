package research

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parlayiq/picks-engine/internal/models"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestScrapedLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "mlb_news.json", `{
		"kind": "news",
		"sport": "MLB",
		"news": [{"title": "Yankees activate starter", "summary": "Back from the IL."}]
	}`)

	store := NewScrapedStore(dir, quietLogger())
	datasets := store.Load(time.Hour)
	require.Len(t, datasets, 1)
	assert.Equal(t, models.ScrapedNews, datasets[0].Kind)
	assert.Equal(t, []string{"Yankees"}, datasets[0].Teams)
	assert.False(t, datasets[0].FetchedAt.IsZero())
}

func TestScrapedLoadSkipsStale(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "old_news.json", `{"kind": "news"}`)
	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))

	store := NewScrapedStore(dir, quietLogger())
	assert.Empty(t, store.Load(24*time.Hour))
}

func TestScrapedLoadSkipsUndecodable(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.json", `not json at all`)
	writeFile(t, dir, "notes.txt", `ignored extension`)

	store := NewScrapedStore(dir, quietLogger())
	assert.Empty(t, store.Load(time.Hour))
}

func TestScrapedLoadMissingDir(t *testing.T) {
	store := NewScrapedStore(filepath.Join(t.TempDir(), "nope"), quietLogger())
	assert.Empty(t, store.Load(time.Hour))
}

func TestKindFromFilename(t *testing.T) {
	assert.Equal(t, models.ScrapedPlayerStats, kindFromFilename("wnba_player_stats.json"))
	assert.Equal(t, models.ScrapedTeamPerformance, kindFromFilename("team_trends.json"))
	assert.Equal(t, models.ScrapedNews, kindFromFilename("headlines.json"))
}
