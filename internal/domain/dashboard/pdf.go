package dashboard

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jung-kurt/gofpdf"
)

// RenderPDF writes a printable A4 report of the view: who, which period, and
// one line per visible order.
func RenderPDF(view View, w io.Writer) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, tr(view.Stat.Label))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	if view.Profile.Name != "" {
		pdf.Cell(0, 8, tr(fmt.Sprintf("Xodim: %s", view.Profile.Name)))
		pdf.Ln(7)
	}
	if view.Stat.Period != "" {
		pdf.Cell(0, 8, tr(fmt.Sprintf("Davr: %s", view.Stat.Period)))
		pdf.Ln(7)
	}
	pdf.Cell(0, 8, tr(fmt.Sprintf("Buyurtmalar soni: %s", strconv.Itoa(view.Stat.Value))))
	pdf.Ln(10)

	if view.Empty {
		pdf.Cell(0, 8, tr(view.EmptyMessage))
		return pdf.Output(w)
	}

	pdf.SetFont("Helvetica", "B", 11)
	headers := []string{"Xizmat", "Sana", "Vaqt", "Holat", "Narx"}
	widths := []float64{70, 28, 18, 32, 42}
	for i, h := range headers {
		pdf.CellFormat(widths[i], 8, tr(h), "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, row := range view.Orders {
		cells := []string{row.Service, row.Date, row.Time, row.Status, row.Price}
		for i, c := range cells {
			align := "L"
			if i == len(cells)-1 {
				align = "R"
			}
			pdf.CellFormat(widths[i], 7, tr(c), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(widths[0]+widths[1]+widths[2]+widths[3], 8, tr("Jami"), "1", 0, "L", false, 0, "")
	pdf.CellFormat(widths[4], 8, tr(view.Total), "1", 0, "R", false, 0, "")

	return pdf.Output(w)
}
