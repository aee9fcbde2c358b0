package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/marco/cinepick/internal/battle"
	"github.com/marco/cinepick/internal/catalog"
)

func sampleResult() *battle.Result {
	runtime := 122
	a := catalog.Movie{ID: 126889, Title: "Alien: Covenant", VoteAverage: 6.1, PosterPath: "/zecMELPbU5YMQpC81Z8ImaaXuf9.jpg", ReleaseDate: "2017-05-09"}
	b := catalog.Movie{ID: 348, Title: "Alien", VoteAverage: 8.2}
	metaA := battle.Extended{Popularity: 40, VoteCount: 9000, Revenue: 240_900_000, Budget: 97_000_000, Runtime: &runtime,
		Cast: make([]catalog.CastMember, 10)}
	metaB := battle.Extended{Popularity: 60, VoteCount: 15000, Revenue: 104_900_000, Budget: 11_000_000, IMDbID: "tt0078748",
		Cast: make([]catalog.CastMember, 8)}
	res := &battle.Result{
		MovieA:   a,
		MovieB:   b,
		MetaA:    metaA,
		MetaB:    metaB,
		Metrics:  battle.Compare(a, b, metaA, metaB),
		ShareURL: "https://cinepick.example/battle?m1=126889&m2=348&winner=348",
	}
	res.Winner = battle.DetermineWinner(a, b, metaA, metaB)
	return res
}

func splitFrontmatter(t *testing.T, content string) (Report, string) {
	t.Helper()
	require.True(t, strings.HasPrefix(content, "---\n"))
	parts := strings.SplitN(content[4:], "---\n", 2)
	require.Len(t, parts, 2)

	var r Report
	require.NoError(t, yaml.Unmarshal([]byte(parts[0]), &r))
	return r, parts[1]
}

func TestRender(t *testing.T) {
	res := sampleResult()
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	content, err := Render(res, created)
	require.NoError(t, err)

	report, body := splitFrontmatter(t, content)
	assert.Equal(t, "Alien: Covenant vs Alien", report.Title)
	assert.Equal(t, "Alien: Covenant", report.MovieA.Title)
	assert.Equal(t, 348, report.Winner)
	assert.Equal(t, 10, report.MovieA.CastSize)
	assert.Equal(t, 122, report.MovieA.Runtime)
	assert.Equal(t, "https://image.tmdb.org/t/p/w500/zecMELPbU5YMQpC81Z8ImaaXuf9.jpg", report.MovieA.Poster)
	assert.Equal(t, res.Metrics, report.Metrics)
	assert.True(t, created.Equal(report.CreatedAt))

	assert.Contains(t, body, "# Alien: Covenant vs Alien")
	assert.Contains(t, body, "**Winner: Alien**")
	assert.Contains(t, body, "| Revenue | $240.9M | $104.9M |")
	assert.Contains(t, body, "https://www.imdb.com/title/tt0078748")
	assert.Contains(t, body, "[Share this battle](https://cinepick.example/battle?m1=126889&m2=348&winner=348)")
}

func TestRender_Tie(t *testing.T) {
	m := catalog.Movie{ID: 1, Title: "Twin"}
	res := &battle.Result{MovieA: m, MovieB: m, Winner: m, Tie: true}

	content, err := Render(res, time.Now())
	require.NoError(t, err)

	report, body := splitFrontmatter(t, content)
	assert.True(t, report.Tie)
	assert.Contains(t, body, "**Tie.**")
	assert.Contains(t, body, "| Budget | n/a | n/a |")
}

func TestWriter_Write(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	w := NewWriter(dir)
	w.now = func() time.Time { return time.Unix(1714564800, 0) }

	path, err := w.Write(sampleResult())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "cinepick-battle-1714564800000.md"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "title: \"Alien: Covenant vs Alien\"")
}

func TestWriter_WriteKeepsEarlierReports(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)
	base := time.Unix(1714564800, 0)
	times := []time.Time{
		base.Add(100 * time.Millisecond),
		base.Add(200 * time.Millisecond),
		base.Add(200 * time.Millisecond),
	}
	next := 0
	w.now = func() time.Time {
		t := times[next]
		next++
		return t
	}

	var paths []string
	for range times {
		path, err := w.Write(sampleResult())
		require.NoError(t, err)
		paths = append(paths, path)
	}

	assert.Equal(t, []string{
		filepath.Join(dir, "cinepick-battle-1714564800100.md"),
		filepath.Join(dir, "cinepick-battle-1714564800200.md"),
		filepath.Join(dir, "cinepick-battle-1714564800200-1.md"),
	}, paths)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}
