package records

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"strings"
	"time"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/jung-kurt/gofpdf"

	"scanlog/infrastructure/dateutil"
	"scanlog/models"
)

func renderCode128PNG(value string, width, height int) ([]byte, error) {
	code, err := code128.Encode(value)
	if err != nil {
		return nil, err
	}
	scaled, err := barcode.Scale(code, width, height)
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := png.Encode(&out, toNRGBA(scaled)); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func toNRGBA(src image.Image) *image.NRGBA {
	bounds := src.Bounds()
	dst := image.NewNRGBA(bounds)
	draw.Draw(dst, bounds, src, bounds.Min, draw.Src)
	return dst
}

// renderScanLabelPDF renders a one-page A6 label for scan: the Code128
// symbol, its value, the scan time in loc and any notes.
func renderScanLabelPDF(scan models.Scan, loc *time.Location) ([]byte, error) {
	barcodePNG, err := renderCode128PNG(scan.Barcode, 1000, 240)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("L", "mm", "A6", "")
	pdf.SetTitle("Scan "+scan.Barcode, false)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	usableW := pageW - left - right

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, fmt.Sprintf("SCAN #%d", scan.ID), "", 1, "C", false, 0, "")

	opt := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	imageName := fmt.Sprintf("scan-barcode-%d", scan.ID)
	pdf.RegisterImageOptionsReader(imageName, opt, bytes.NewReader(barcodePNG))
	imgW := usableW
	imgH := 30.0
	y := pdf.GetY() + 2
	pdf.ImageOptions(imageName, left, y, imgW, imgH, false, opt, 0, "")

	pdf.SetY(y + imgH + 3)
	size := fitFontSizeForWidth(pdf, "Helvetica", "B", 18, 8, scan.Barcode, usableW)
	pdf.SetFont("Helvetica", "B", size)
	pdf.CellFormat(0, 9, scan.Barcode, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, "Scanned: "+dateutil.FormatDateTime(scan.ScannedAt.In(loc)), "", 1, "C", false, 0, "")
	if notes := strings.TrimSpace(scan.NoteText()); notes != "" {
		pdf.MultiCell(0, 5, "Notes: "+notes, "", "C", false)
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func fitFontSizeForWidth(pdf *gofpdf.Fpdf, family, style string, base, min float64, text string, maxWidth float64) float64 {
	if maxWidth <= 0 {
		return min
	}
	size := base
	pdf.SetFont(family, style, size)
	for size > min && pdf.GetStringWidth(text) > maxWidth {
		size -= 0.5
		pdf.SetFont(family, style, size)
	}
	return size
}
