// Package export renders record snapshots as CSV, plain text and XLSX. All
// functions are read-only projections.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"Gin_postgres_redis_robe_tracker/models"

	"github.com/xuri/excelize/v2"
)

const (
	CSVFileName  = "robes_history.csv"
	TextFileName = "robes_history.txt"
	XLSXFileName = "robes_history.xlsx"

	// he-IL toLocaleString 的格式
	timeLayout  = "2.1.2006, 15:04:05"
	placeholder = "-"
	separator   = "-------------------"
	sheetName   = "Sheet1"
)

var Header = []string{"מספר גלימה", "תאריך השאלה", "תאריך החזרה", "סטטוס"}

type Formatter struct {
	loc *time.Location
}

// NewFormatter nil loc 使用 UTC
func NewFormatter(loc *time.Location) Formatter {
	if loc == nil {
		loc = time.UTC
	}
	return Formatter{loc: loc}
}

func (f Formatter) Time(t time.Time) string {
	return t.In(f.loc).Format(timeLayout)
}

func (f Formatter) ReturnTime(t *time.Time) string {
	if t == nil {
		return placeholder
	}
	return f.Time(*t)
}

// Row 一条记录的四列
func (f Formatter) Row(r models.Record) []string {
	return []string{r.ExternalID, f.Time(r.BorrowedAt), f.ReturnTime(r.ReturnedAt), r.Status.Label()}
}

func (f Formatter) WriteCSV(w io.Writer, rs []models.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range rs {
		if err := cw.Write(f.Row(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (f Formatter) WriteText(w io.Writer, rs []models.Record) error {
	blocks := make([]string, 0, len(rs))
	for _, r := range rs {
		row := f.Row(r)
		var b strings.Builder
		for i, h := range Header {
			fmt.Fprintf(&b, "%s: %s\n", h, row[i])
		}
		b.WriteString(separator)
		blocks = append(blocks, b.String())
	}
	_, err := io.WriteString(w, strings.Join(blocks, "\n\n"))
	return err
}

func (f Formatter) WriteXLSX(w io.Writer, rs []models.Record) error {
	x := excelize.NewFile()
	defer x.Close()

	if err := x.SetSheetRow(sheetName, "A1", &Header); err != nil {
		return err
	}
	for i, r := range rs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := f.Row(r)
		if err := x.SetSheetRow(sheetName, cell, &row); err != nil {
			return err
		}
	}
	if err := x.SetColWidth(sheetName, "A", "D", 22); err != nil {
		return err
	}
	_, err := x.WriteTo(w)
	return err
}

// CountsFromCSV 从导出的 CSV 反推统计，用于核对导出与内存数据一致
func CountsFromCSV(r io.Reader) (models.Counts, error) {
	rows, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return models.Counts{}, err
	}
	byLabel := make(map[string]models.Status, len(models.Statuses))
	for _, s := range models.Statuses {
		byLabel[s.Label()] = s
	}
	var c models.Counts
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if len(row) != len(Header) {
			return models.Counts{}, fmt.Errorf("row %d: want %d fields, got %d", i+1, len(Header), len(row))
		}
		s, ok := byLabel[row[3]]
		if !ok {
			return models.Counts{}, fmt.Errorf("row %d: unknown status %q", i+1, row[3])
		}
		c.Add(s)
	}
	return c, nil
}
