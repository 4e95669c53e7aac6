// Package report wires the roster sampler and the scoring functions into the
// printable score report.
package report

import (
	"bytes"
	"fmt"
	"io"

	"go.uber.org/zap"

	"rollcall-scores-go/models"
	"rollcall-scores-go/roster"
	"rollcall-scores-go/scoring"
)

const banner = "=== 學生成績管理系統 ===\n\n\n"

// Rand is the single random stream shared by sampling and score generation.
type Rand interface {
	IntN(n int) int
}

// Options configures one pipeline run.
type Options struct {
	NamesFile string
	Count     int
	Rand      Rand
	Logger    *zap.Logger
}

// Run prints the banner, samples names, generates their scores and prints the
// table followed by the analysis. A missing or empty names file prints a one
// line diagnostic and returns nil. Sampling more names than the file holds is
// returned as an error.
func Run(w io.Writer, opts Options) error {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if _, err := io.WriteString(w, banner); err != nil {
		return err
	}

	names, err := roster.SampleFile(opts.NamesFile, opts.Count, opts.Rand)
	switch {
	case models.IsKind(err, models.KindNotFound):
		logger.Debug("Names file not found", zap.String("path", opts.NamesFile))
		_, werr := fmt.Fprintf(w, "檔案 %s 不存在，請檢查檔案路徑。\n", opts.NamesFile)
		return werr
	case models.IsKind(err, models.KindEmptySource):
		logger.Debug("Names file is empty", zap.String("path", opts.NamesFile))
		_, werr := io.WriteString(w, "檔案內容為空，無法取出姓名。\n")
		return werr
	case err != nil:
		return err
	}
	if len(names) == 0 {
		return nil
	}
	logger.Debug("Sampled names", zap.Strings("names", names))

	records := scoring.Generate(names, opts.Rand)
	return Render(w, records)
}

// Render analyzes records and writes the table and analysis in one write, so
// a failure never leaves a half-printed table behind.
func Render(w io.Writer, records []models.StudentRecord) error {
	summary, err := scoring.Analyze(records)
	if err != nil {
		return err
	}
	return RenderSummary(w, records, summary)
}

// RenderSummary writes records and an already computed summary.
func RenderSummary(w io.Writer, records []models.StudentRecord, summary models.Summary) error {
	var buf bytes.Buffer
	if err := scoring.PrintTable(&buf, records); err != nil {
		return err
	}
	if err := scoring.PrintAnalysis(&buf, summary); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}
