// Package scoring synthesizes exam scores for sampled names, renders them
// as a table and summarizes them.
package scoring

import "rollcall-scores-go/models"

// Rand is the random stream scores are drawn from.
type Rand interface {
	IntN(n int) int
}

// Generate builds one record per name. Scores are drawn in Subjects order,
// name by name, so the output depends only on names and the stream state.
func Generate(names []string, rng Rand) []models.StudentRecord {
	records := make([]models.StudentRecord, 0, len(names))
	for _, name := range names {
		records = append(records, models.StudentRecord{
			Name:    name,
			Chinese: drawScore(rng),
			English: drawScore(rng),
			Math:    drawScore(rng),
		})
	}
	return records
}

func drawScore(rng Rand) int {
	return models.MinScore + rng.IntN(models.MaxScore-models.MinScore+1)
}
