package checkouts

import (
	"bytes"
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

const csvDateLayout = "2006-01-02"

var overdueCSVHeader = []string{"貸出ID", "書名", "著者", "ISBN", "利用者", "メール", "学籍番号", "貸出日", "返却期限", "延滞日数"}

// writeOverdueCSV はExcelでそのまま開けるよう CP932 で書き出す
func writeOverdueCSV(w io.Writer, rows []CheckoutDetail, now time.Time) error {
	var b bytes.Buffer
	// CP932 に無い文字は置換して書き出しを止めない
	enc := encoding.ReplaceUnsupported(japanese.ShiftJIS.NewEncoder())
	tw := transform.NewWriter(&b, enc)
	cw := csv.NewWriter(tw)

	if err := cw.Write(overdueCSVHeader); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			strconv.FormatInt(r.ID, 10),
			r.BookTitle,
			r.BookAuthor,
			r.BookISBN.String,
			r.UserName,
			r.UserEmail,
			r.UserStudentID.String,
			r.BorrowedDate.Format(csvDateLayout),
			r.DueDate.Format(csvDateLayout),
			strconv.Itoa(daysOverdue(r.DueDate, now)),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	if err := tw.Close(); err != nil {
		return err
	}
	_, err := w.Write(b.Bytes())
	return err
}

// 期限を過ぎた日数（切り上げ）
func daysOverdue(due, now time.Time) int {
	if !due.Before(now) {
		return 0
	}
	d := now.Sub(due)
	days := int(d / (24 * time.Hour))
	if d%(24*time.Hour) != 0 {
		days++
	}
	return days
}
