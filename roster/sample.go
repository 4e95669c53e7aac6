// Package roster loads name lists and draws random subsets from them.
package roster

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"rollcall-scores-go/models"
)

// Rand is the slice of a random stream the sampler consumes.
// *math/rand/v2.Rand satisfies it.
type Rand interface {
	IntN(n int) int
}

// LoadNames reads whitespace-delimited names from a UTF-8 text file.
// Files ending in .xlsx are read as a roster sheet (ID, Name columns).
func LoadNames(path string) ([]string, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return loadExcelNames(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, models.NewOpError("roster.load", models.KindNotFound, path, nil)
		}
		return nil, fmt.Errorf("failed to read names file %s: %w", path, err)
	}

	names := strings.Fields(string(data))
	if len(names) == 0 {
		return nil, models.NewOpError("roster.load", models.KindEmptySource, path, nil)
	}
	return names, nil
}

func loadExcelNames(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, models.NewOpError("roster.load", models.KindNotFound, path, nil)
		}
		return nil, fmt.Errorf("failed to open roster workbook %s: %w", path, err)
	}
	defer f.Close()

	students, err := ParseStudentsExcel(f, "", nil)
	if err != nil {
		return nil, err
	}
	if len(students) == 0 {
		return nil, models.NewOpError("roster.load", models.KindEmptySource, path, nil)
	}

	names := make([]string, len(students))
	for i, s := range students {
		names[i] = s.Name
	}
	return names, nil
}

// Sample draws k names uniformly at random without replacement.
// The input slice is not modified. Asking for more names than exist is an
// error; the result is never clamped or padded with repeats.
func Sample(names []string, k int, rng Rand) ([]string, error) {
	if k < 0 || k > len(names) {
		return nil, models.NewOpError("roster.sample", models.KindSamplingSize, "",
			fmt.Errorf("%w: requested %d of %d", models.ErrSamplingSize, k, len(names)))
	}

	// Partial Fisher-Yates over a copy.
	pool := slices.Clone(names)
	for i := 0; i < k; i++ {
		j := i + rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k:k], nil
}

// SampleFile loads names from path and samples k of them.
func SampleFile(path string, k int, rng Rand) ([]string, error) {
	names, err := LoadNames(path)
	if err != nil {
		return nil, err
	}
	return Sample(names, k, rng)
}
