package checkouts

import (
	"bytes"
	"database/sql"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

func TestWriteOverdueCSV_CP932(t *testing.T) {
	now := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)
	rows := []CheckoutDetail{{
		Checkout: Checkout{
			ID:           7,
			BorrowedDate: time.Date(2025, 4, 20, 9, 0, 0, 0, time.UTC),
			DueDate:      time.Date(2025, 5, 4, 9, 0, 0, 0, time.UTC),
			Status:       StatusBorrowed,
		},
		BookTitle:     "吾輩は猫である",
		BookAuthor:    "夏目漱石",
		BookISBN:      sql.NullString{String: "9784003101018", Valid: true},
		UserName:      "山田 太郎",
		UserEmail:     "taro@example.com",
		UserStudentID: sql.NullString{String: "S001", Valid: true},
	}}

	var buf bytes.Buffer
	require.NoError(t, writeOverdueCSV(&buf, rows, now))

	r := csv.NewReader(transform.NewReader(&buf, japanese.ShiftJIS.NewDecoder()))
	records, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, overdueCSVHeader, records[0])
	assert.Equal(t, []string{
		"7", "吾輩は猫である", "夏目漱石", "9784003101018", "山田 太郎", "taro@example.com", "S001",
		"2025-04-20", "2025-05-04", "7",
	}, records[1])
}

func TestWriteOverdueCSV_UnsupportedRunesDoNotFail(t *testing.T) {
	rows := []CheckoutDetail{{BookTitle: "emoji 📚"}}
	var buf bytes.Buffer
	assert.NoError(t, writeOverdueCSV(&buf, rows, time.Now()))
}

func TestDaysOverdue(t *testing.T) {
	due := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 0, daysOverdue(due, due))
	assert.Equal(t, 0, daysOverdue(due, due.Add(-time.Hour)))
	assert.Equal(t, 1, daysOverdue(due, due.Add(time.Hour)))
	assert.Equal(t, 1, daysOverdue(due, due.Add(24*time.Hour)))
	assert.Equal(t, 2, daysOverdue(due, due.Add(25*time.Hour)))
}
