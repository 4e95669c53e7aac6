package scoring

import (
	"fmt"
	"io"
	"strings"

	"rollcall-scores-go/models"
)

// PrintTable writes the score table: a title, a header row and one row per
// record ending with the record average to two decimals.
func PrintTable(w io.Writer, records []models.StudentRecord) error {
	var b strings.Builder
	b.WriteString("學生成績表:\n")

	b.WriteString("姓名")
	for _, s := range models.Subjects {
		b.WriteString("\t" + string(s))
	}
	b.WriteString("\t平均\n")

	for _, r := range records {
		fmt.Fprintf(&b, "%s\t%d\t%d\t%d\t%.2f\n", r.Name, r.Chinese, r.English, r.Math, r.Average())
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// PrintAnalysis writes the class average and the top and bottom students.
func PrintAnalysis(w io.Writer, s models.Summary) error {
	_, err := fmt.Fprintf(w, "成績分析:\n- 全班平均成績:%.1f分\n- 最高分學生: %s(%.1f分)\n- 最低分學生: %s(%.1f分)\n",
		s.ClassAverage, s.Top.Name, s.Top.Average, s.Bottom.Name, s.Bottom.Average)
	return err
}
