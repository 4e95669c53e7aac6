package report

import (
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"rollcall-scores-go/models"
	"rollcall-scores-go/roster"
	"rollcall-scores-go/scoring"
)

// NewRand returns the deterministic stream used for a given seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

// Build samples count names from a class roster, scores them and analyzes
// the result. names must already be in a stable order for the seed to
// reproduce the same report.
func Build(classID string, names []string, count int, seed uint64, now time.Time) (models.Report, error) {
	rng := NewRand(seed)

	sampled, err := roster.Sample(names, count, rng)
	if err != nil {
		return models.Report{}, err
	}
	records := scoring.Generate(sampled, rng)
	summary, err := scoring.Analyze(records)
	if err != nil {
		return models.Report{}, err
	}

	return models.Report{
		ID:        uuid.NewString(),
		ClassID:   classID,
		Seed:      seed,
		CreatedAt: now.UTC(),
		Records:   records,
		Summary:   summary,
	}, nil
}
