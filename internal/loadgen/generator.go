package loadgen

import (
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/okian/gauntlet/internal/client"
)

// Score ranges for generated runs. Values are whole numbers most of the time
// with occasional fractions, so server-side rounding is exercised.
const (
	maxCash     = 5_000_000
	maxSales    = 250_000
	maxBurn     = 400_000
	fractionPct = 20
)

// Generator produces random submissions.
type Generator struct {
	faker *gofakeit.Faker
}

// NewGenerator creates a Generator. A zero seed picks a time-based one.
func NewGenerator(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{faker: gofakeit.New(uint64(seed))}
}

// Submissions returns n random submissions.
func (g *Generator) Submissions(n int) []client.Submission {
	out := make([]client.Submission, n)
	for i := range out {
		out[i] = g.one()
	}
	return out
}

func (g *Generator) one() client.Submission {
	name := g.faker.Gamertag()
	if g.faker.Bool() {
		name = g.faker.FirstName() + " " + g.faker.LastName()
	}
	return client.Submission{
		Name:  name,
		Cash:  g.score(maxCash),
		Sales: g.score(maxSales),
		Burn:  g.score(maxBurn),
	}
}

func (g *Generator) score(max int) float64 {
	v := float64(g.faker.IntRange(0, max))
	if g.faker.IntRange(1, 100) <= fractionPct {
		v += g.faker.Float64Range(0, 1)
	}
	return v
}
