package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"Gin_postgres_redis_robe_tracker/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sample() []models.Record {
	borrowed := time.Date(2024, 5, 1, 7, 5, 9, 0, time.UTC)
	returned := time.Date(2024, 5, 2, 13, 30, 0, 0, time.UTC)
	return []models.Record{
		{Key: "k1", ExternalID: "A1", BorrowedAt: borrowed, ReturnedAt: &returned, Status: models.StatusReturned},
		{Key: "k2", ExternalID: "B2", BorrowedAt: borrowed, Status: models.StatusBorrowed},
		{Key: "k3", ExternalID: "C3", BorrowedAt: borrowed, Status: models.StatusNotReturned},
		{Key: "k4", ExternalID: "D4", BorrowedAt: borrowed, Status: models.StatusBorrowed},
	}
}

func TestFormatterTime(t *testing.T) {
	f := NewFormatter(nil)
	assert.Equal(t, "1.5.2024, 07:05:09", f.Time(time.Date(2024, 5, 1, 7, 5, 9, 0, time.UTC)))
	assert.Equal(t, "-", f.ReturnTime(nil))

	loc := time.FixedZone("IDT", 3*60*60)
	assert.Equal(t, "1.5.2024, 10:05:09", NewFormatter(loc).Time(time.Date(2024, 5, 1, 7, 5, 9, 0, time.UTC)))
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(nil).WriteCSV(&buf, sample()))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "מספר גלימה,תאריך השאלה,תאריך החזרה,סטטוס", lines[0])
	assert.Equal(t, `A1,"1.5.2024, 07:05:09","2.5.2024, 13:30:00",הוחזר`, lines[1])
	assert.Equal(t, `B2,"1.5.2024, 07:05:09",-,מושאל`, lines[2])
	assert.Equal(t, `C3,"1.5.2024, 07:05:09",-,לא הוחזר`, lines[3])
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(nil).WriteText(&buf, sample()[:2]))

	want := "מספר גלימה: A1\n" +
		"תאריך השאלה: 1.5.2024, 07:05:09\n" +
		"תאריך החזרה: 2.5.2024, 13:30:00\n" +
		"סטטוס: הוחזר\n" +
		"-------------------\n\n" +
		"מספר גלימה: B2\n" +
		"תאריך השאלה: 1.5.2024, 07:05:09\n" +
		"תאריך החזרה: -\n" +
		"סטטוס: מושאל\n" +
		"-------------------"
	assert.Equal(t, want, buf.String())
}

func TestWriteTextEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(nil).WriteText(&buf, nil))
	assert.Empty(t, buf.String())
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(nil).WriteXLSX(&buf, sample()))

	x, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer x.Close()

	rows, err := x.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, Header, rows[0])
	assert.Equal(t, []string{"B2", "1.5.2024, 07:05:09", "-", "מושאל"}, rows[2])
}

func TestCSVRoundTripCounts(t *testing.T) {
	rs := sample()
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(nil).WriteCSV(&buf, rs))

	got, err := CountsFromCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, models.CountRecords(rs), got)
	assert.Equal(t, models.Counts{Borrowed: 2, Returned: 1, NotReturned: 1}, got)
}

func TestCountsFromCSVRejectsUnknownStatus(t *testing.T) {
	in := "h1,h2,h3,h4\nA1,x,y,borrowed\n"
	_, err := CountsFromCSV(strings.NewReader(in))
	assert.Error(t, err)
}
