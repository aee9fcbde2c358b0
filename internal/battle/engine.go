// Package battle compares two movies head to head.
//
// The engine is a pure function over two movie summaries and their extended
// metadata. Every metric is a signed difference (first movie minus second),
// normalized by the larger of the two values (floored at 1) and combined with
// fixed weights into a total score whose sign picks the winner.
package battle

import (
	"math"

	"github.com/marco/cinepick/internal/catalog"
)

// Metric weights. They sum to 100.
const (
	WeightRating     = 40
	WeightPopularity = 15
	WeightVotes      = 15
	WeightRevenue    = 15
	WeightBudget     = 10
	WeightCast       = 5
)

// Metrics is the outcome of one comparison. Raw scores are differences
// between the first and the second movie.
type Metrics struct {
	RatingScore     float64    `json:"ratingScore" yaml:"ratingScore"`
	PopularityScore float64    `json:"popularityScore" yaml:"popularityScore"`
	VoteCountScore  int64      `json:"voteCountScore" yaml:"voteCountScore"`
	RevenueScore    int64      `json:"revenueScore" yaml:"revenueScore"`
	BudgetScore     int64      `json:"budgetScore" yaml:"budgetScore"`
	CastSizeScore   int        `json:"castSizeScore" yaml:"castSizeScore"`
	RuntimeScore    int        `json:"runtimeScore" yaml:"runtimeScore"`
	TotalScore      float64    `json:"totalScore" yaml:"totalScore"`
	Normalized      Normalized `json:"normalized" yaml:"normalized"`
}

// Normalized holds the per-metric values in [-1, 1] that feed TotalScore.
// Runtime has no entry: it is reported but not weighted.
type Normalized struct {
	Rating     float64 `json:"rating" yaml:"rating"`
	Popularity float64 `json:"popularity" yaml:"popularity"`
	Votes      float64 `json:"votes" yaml:"votes"`
	Revenue    float64 `json:"revenue" yaml:"revenue"`
	Budget     float64 `json:"budget" yaml:"budget"`
	Cast       float64 `json:"cast" yaml:"cast"`
}

// Compare computes the metrics of a against b.
func Compare(a, b catalog.Movie, metaA, metaB Extended) Metrics {
	metaA, metaB = metaA.sanitized(), metaB.sanitized()

	m := Metrics{
		RatingScore:     finite(a.VoteAverage) - finite(b.VoteAverage),
		PopularityScore: metaA.Popularity - metaB.Popularity,
		VoteCountScore:  int64(metaA.VoteCount) - int64(metaB.VoteCount),
		RevenueScore:    metaA.Revenue - metaB.Revenue,
		BudgetScore:     metaA.Budget - metaB.Budget,
		CastSizeScore:   len(metaA.Cast) - len(metaB.Cast),
		RuntimeScore:    metaA.runtime() - metaB.runtime(),
	}

	n := Normalized{
		Rating:     m.RatingScore / 10,
		Popularity: m.PopularityScore / floorMax(metaA.Popularity, metaB.Popularity),
		Votes:      float64(m.VoteCountScore) / floorMax(float64(metaA.VoteCount), float64(metaB.VoteCount)),
		Revenue:    float64(m.RevenueScore) / floorMax(float64(metaA.Revenue), float64(metaB.Revenue)),
		Budget:     float64(m.BudgetScore) / floorMax(float64(metaA.Budget), float64(metaB.Budget)),
		Cast:       float64(m.CastSizeScore) / floorMax(float64(len(metaA.Cast)), float64(len(metaB.Cast))),
	}

	m.Normalized = n
	m.TotalScore = n.Rating*WeightRating +
		n.Popularity*WeightPopularity +
		n.Votes*WeightVotes +
		n.Revenue*WeightRevenue +
		n.Budget*WeightBudget +
		n.Cast*WeightCast

	return m
}

// DetermineWinner returns a when its total score is strictly positive and b
// otherwise, so a tie goes to b.
func DetermineWinner(a, b catalog.Movie, metaA, metaB Extended) catalog.Movie {
	if Compare(a, b, metaA, metaB).TotalScore > 0 {
		return a
	}
	return b
}

func floorMax(x, y float64) float64 {
	return math.Max(math.Max(x, y), 1)
}

func finite(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return x
}
