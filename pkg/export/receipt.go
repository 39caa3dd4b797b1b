package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Receipt holds the fields printed on a payment receipt.
type Receipt struct {
	PaymentID       string
	TransactionID   string
	StudentEmail    string
	ClassName       string
	InstructorName  string
	InstructorEmail string
	Amount          float64
	Currency        string
	PaidAt          time.Time
}

// ReceiptPDF renders a single-page payment receipt.
func ReceiptPDF(r Receipt) ([]byte, error) {
	if r.PaymentID == "" {
		return nil, fmt.Errorf("receipt requires a payment id")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 20, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, "PAYMENT RECEIPT", "", 1, "C", false, 0, "")
	pdf.Ln(6)

	rows := [][2]string{
		{"Receipt No.", r.PaymentID},
		{"Transaction", r.TransactionID},
		{"Billed To", r.StudentEmail},
		{"Class", r.ClassName},
		{"Instructor", fmt.Sprintf("%s <%s>", r.InstructorName, r.InstructorEmail)},
		{"Amount", fmt.Sprintf("%.2f %s", r.Amount, r.Currency)},
		{"Date", r.PaidAt.UTC().Format("2006-01-02 15:04:05 MST")},
	}

	for _, row := range rows {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(45, 8, row[0], "1", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(135, 8, row[1], "1", 1, "L", false, 0, "")
	}

	pdf.Ln(8)
	pdf.SetFont("Arial", "I", 8)
	pdf.CellFormat(0, 6, "This receipt was generated automatically.", "", 1, "L", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render receipt pdf: %w", err)
	}
	return buf.Bytes(), nil
}
