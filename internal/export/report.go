// Package export writes battle results as Markdown reports with YAML
// frontmatter.
package export

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/marco/cinepick/internal/battle"
	"github.com/marco/cinepick/internal/catalog"
)

// Contender is one side of a battle as stored in the frontmatter.
type Contender struct {
	ID          int     `yaml:"id"`
	Title       string  `yaml:"title"`
	ReleaseDate string  `yaml:"releaseDate,omitempty"`
	Rating      float64 `yaml:"rating"`
	Poster      string  `yaml:"poster,omitempty"`
	Popularity  float64 `yaml:"popularity"`
	VoteCount   int     `yaml:"voteCount"`
	Revenue     int64   `yaml:"revenue"`
	Budget      int64   `yaml:"budget"`
	CastSize    int     `yaml:"castSize"`
	Runtime     int     `yaml:"runtime,omitempty"`
	IMDbID      string  `yaml:"imdbId,omitempty"`
}

// Report is the frontmatter of a battle report.
type Report struct {
	Title      string         `yaml:"title"`
	MovieA     Contender      `yaml:"movieA"`
	MovieB     Contender      `yaml:"movieB"`
	Winner     int            `yaml:"winner"`
	Tie        bool           `yaml:"tie,omitempty"`
	TotalScore float64        `yaml:"totalScore"`
	Metrics    battle.Metrics `yaml:"metrics"`
	ShareURL   string         `yaml:"shareUrl,omitempty"`
	CreatedAt  time.Time      `yaml:"createdAt"`
}

// Writer writes battle reports into a directory.
type Writer struct {
	dir string
	now func() time.Time
}

// NewWriter creates a Writer for dir.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir, now: time.Now}
}

// FileName returns the report file name for a timestamp.
func FileName(t time.Time) string {
	return fmt.Sprintf("cinepick-battle-%d.md", t.UnixMilli())
}

// maxNameAttempts bounds the suffixes tried when a report name is taken.
const maxNameAttempts = 100

// Write renders res and stores it, returning the file path. An existing
// report is never overwritten: a numeric suffix is added instead.
func (w *Writer) Write(res *battle.Result) (string, error) {
	createdAt := w.now()
	content, err := Render(res, createdAt)
	if err != nil {
		return "", fmt.Errorf("failed to generate report: %w", err)
	}

	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	base := strings.TrimSuffix(FileName(createdAt), ".md")
	for i := 0; i < maxNameAttempts; i++ {
		name := base + ".md"
		if i > 0 {
			name = fmt.Sprintf("%s-%d.md", base, i)
		}
		path := filepath.Join(w.dir, name)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to create report: %w", err)
		}
		if _, err := f.WriteString(content); err != nil {
			f.Close()
			return "", fmt.Errorf("failed to write report: %w", err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("failed to write report: %w", err)
		}
		return path, nil
	}
	return "", fmt.Errorf("failed to write report: no free file name for %s", base)
}

func contender(m catalog.Movie, meta battle.Extended) Contender {
	c := Contender{
		ID:          m.ID,
		Title:       m.Title,
		ReleaseDate: m.ReleaseDate,
		Rating:      m.VoteAverage,
		Poster:      catalog.ImageURL(m.PosterPath, "w500"),
		Popularity:  meta.Popularity,
		VoteCount:   meta.VoteCount,
		Revenue:     meta.Revenue,
		Budget:      meta.Budget,
		CastSize:    len(meta.Cast),
		IMDbID:      meta.IMDbID,
	}
	if meta.Runtime != nil {
		c.Runtime = *meta.Runtime
	}
	if c.ReleaseDate == "" {
		c.ReleaseDate = meta.ReleaseDate
	}
	return c
}

// Render builds the Markdown report for res.
func Render(res *battle.Result, createdAt time.Time) (string, error) {
	report := Report{
		Title:      fmt.Sprintf("%s vs %s", res.MovieA.Title, res.MovieB.Title),
		MovieA:     contender(res.MovieA, res.MetaA),
		MovieB:     contender(res.MovieB, res.MetaB),
		Winner:     res.Winner.ID,
		Tie:        res.Tie,
		TotalScore: res.Metrics.TotalScore,
		Metrics:    res.Metrics,
		ShareURL:   res.ShareURL,
		CreatedAt:  createdAt.UTC(),
	}

	// Titles like "Alien: Covenant" must stay scalars.
	var doc yaml.Node
	if err := doc.Encode(&report); err != nil {
		return "", fmt.Errorf("failed to marshal report to YAML: %w", err)
	}
	quoteStrings(&doc)
	frontmatter, err := yaml.Marshal(&doc)
	if err != nil {
		return "", fmt.Errorf("failed to marshal report to YAML: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("---\n")
	sb.Write(frontmatter)
	sb.WriteString("---\n\n")

	fmt.Fprintf(&sb, "# %s\n\n", report.Title)
	if res.Tie {
		fmt.Fprintf(&sb, "**Tie.** Both movies scored evenly; %s takes it on the tiebreak.\n\n", res.Winner.Title)
	} else {
		fmt.Fprintf(&sb, "**Winner: %s** (total score %+.2f)\n\n", res.Winner.Title, res.Metrics.TotalScore)
	}

	sb.WriteString("## Head to head\n\n")
	sb.WriteString("| Metric | " + res.MovieA.Title + " | " + res.MovieB.Title + " | Normalized |\n")
	sb.WriteString("|---|---|---|---|\n")
	a, b, n := report.MovieA, report.MovieB, res.Metrics.Normalized
	fmt.Fprintf(&sb, "| Rating | %.1f | %.1f | %+.3f |\n", a.Rating, b.Rating, n.Rating)
	fmt.Fprintf(&sb, "| Popularity | %.1f | %.1f | %+.3f |\n", a.Popularity, b.Popularity, n.Popularity)
	fmt.Fprintf(&sb, "| Votes | %d | %d | %+.3f |\n", a.VoteCount, b.VoteCount, n.Votes)
	fmt.Fprintf(&sb, "| Revenue | %s | %s | %+.3f |\n", formatMoney(a.Revenue), formatMoney(b.Revenue), n.Revenue)
	fmt.Fprintf(&sb, "| Budget | %s | %s | %+.3f |\n", formatMoney(a.Budget), formatMoney(b.Budget), n.Budget)
	fmt.Fprintf(&sb, "| Cast | %d | %d | %+.3f |\n", a.CastSize, b.CastSize, n.Cast)
	fmt.Fprintf(&sb, "| Runtime | %d min | %d min | |\n", a.Runtime, b.Runtime)

	sb.WriteString("\n## Links\n\n")
	for _, c := range []Contender{a, b} {
		fmt.Fprintf(&sb, "- [%s on TMDB](https://www.themoviedb.org/movie/%d)\n", c.Title, c.ID)
		if c.IMDbID != "" {
			fmt.Fprintf(&sb, "- [%s on IMDb](https://www.imdb.com/title/%s)\n", c.Title, c.IMDbID)
		}
	}
	if res.ShareURL != "" {
		fmt.Fprintf(&sb, "- [Share this battle](%s)\n", res.ShareURL)
	}

	return sb.String(), nil
}

// quoteStrings double-quotes every string scalar value in the tree.
func quoteStrings(n *yaml.Node) {
	switch n.Kind {
	case yaml.DocumentNode, yaml.SequenceNode:
		for _, c := range n.Content {
			quoteStrings(c)
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			quoteStrings(n.Content[i+1])
		}
	case yaml.ScalarNode:
		if n.Tag == "!!str" {
			n.Style = yaml.DoubleQuotedStyle
		}
	}
}

func formatMoney(v int64) string {
	switch {
	case v >= 1_000_000_000:
		return fmt.Sprintf("$%.2fB", float64(v)/1e9)
	case v >= 1_000_000:
		return fmt.Sprintf("$%.1fM", float64(v)/1e6)
	case v > 0:
		return fmt.Sprintf("$%d", v)
	default:
		return "n/a"
	}
}
