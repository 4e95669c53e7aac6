package scoring

import "rollcall-scores-go/models"

// Analyze computes the class average over every individual score and picks
// the records with the highest and lowest own average. On ties the earlier
// record keeps the spot.
func Analyze(records []models.StudentRecord) (models.Summary, error) {
	if len(records) == 0 {
		return models.Summary{}, models.NewOpError("scoring.analyze", models.KindEmptyInput, "", nil)
	}

	var (
		total  int
		count  int
		top    models.RankedStudent
		bottom models.RankedStudent
	)
	for i, r := range records {
		total += r.Total()
		count += len(models.Subjects)

		avg := r.Average()
		if i == 0 || avg > top.Average {
			top = models.RankedStudent{Name: r.Name, Average: avg}
		}
		if i == 0 || avg < bottom.Average {
			bottom = models.RankedStudent{Name: r.Name, Average: avg}
		}
	}

	return models.Summary{
		ClassAverage: float64(total) / float64(count),
		Top:          top,
		Bottom:       bottom,
	}, nil
}
