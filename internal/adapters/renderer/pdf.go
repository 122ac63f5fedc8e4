package renderer

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/rs/zerolog/log"
)

// PDF renders plan reports as A4 documents. A UTF-8 TTF font file is needed
// for Cyrillic output; without one the renderer degrades to the Helvetica
// core font.
type PDF struct {
	fontData []byte
}

func NewPDF(fontPath string) *PDF {
	r := &PDF{}

	if fontPath == "" {
		log.Warn().Msg("no pdf font configured, Cyrillic reports will degrade")
		return r
	}

	data, err := os.ReadFile(fontPath)
	if err != nil {
		log.Warn().Err(err).Str("path", fontPath).
			Msg("failed to load pdf font, Cyrillic reports will degrade")
		return r
	}

	r.fontData = data
	return r
}

func (r *PDF) Render(title, body string) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")

	family := "Helvetica"
	if r.fontData != nil {
		family = "report"
		pdf.AddUTF8FontFromBytes(family, "", r.fontData)
	}

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(family, "", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("%d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()

	pdf.SetFont(family, "", 16)
	pdf.MultiCell(0, 9, title, "", "L", false)
	pdf.Ln(3)

	for _, line := range strings.Split(body, "\n") {
		if heading := strings.TrimLeft(line, "# "); strings.HasPrefix(line, "#") {
			pdf.Ln(2)
			pdf.SetFont(family, "", 13)
			pdf.MultiCell(0, 7, cleanupMarkup(heading), "", "L", false)
			pdf.SetFont(family, "", 11)
			continue
		}

		pdf.SetFont(family, "", 11)
		pdf.MultiCell(0, 6, cleanupMarkup(line), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}

	return buf.Bytes(), nil
}

// cleanupMarkup strips the markdown emphasis markers the model tends to
// emit, they carry nothing in a PDF.
func cleanupMarkup(line string) string {
	line = strings.ReplaceAll(line, "**", "")
	return strings.ReplaceAll(line, "__", "")
}
