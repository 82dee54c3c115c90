package challan

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/jung-kurt/gofpdf"
)

// BarcodeValue is what the challan barcode encodes.
func BarcodeValue(n int64) string {
	return fmt.Sprintf("CH%06d", n)
}

func renderPDF(doc Document) ([]byte, error) {
	barcodeValue := BarcodeValue(doc.ChallanNo)
	barcodePNG, err := renderCode128PNG(barcodeValue, 900, 180)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Challan %d", doc.ChallanNo), false)
	pdf.SetMargins(12, 12, 12)
	pdf.AddPage()
	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 24

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(contentW, 10, fmt.Sprintf("DELIVERY CHALLAN #%d", doc.ChallanNo), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(contentW, 6, doc.Header.Pipeline+" - "+doc.Header.Stage, "", 1, "C", false, 0, "")
	pdf.Ln(3)

	client := doc.Header.ClientName
	if client == "" {
		client = "-"
	}
	chalan := doc.Header.ChalanNo
	if chalan == "" {
		chalan = "-"
	}
	third := contentW / 3
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(third, 6, "Client", "LTR", 0, "L", false, 0, "")
	pdf.CellFormat(third, 6, "Challan No", "LTR", 0, "L", false, 0, "")
	pdf.CellFormat(third, 6, "Date", "LTR", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	clientFont := fitFontSizeForWidth(pdf, "Helvetica", "", 12, 7, client, third-2)
	pdf.SetFont("Helvetica", "", clientFont)
	pdf.CellFormat(third, 8, client, "LBR", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(third, 8, chalan, "LBR", 0, "L", false, 0, "")
	pdf.CellFormat(third, 8, doc.Header.Date, "LBR", 1, "L", false, 0, "")
	pdf.Ln(4)

	widths := []float64{10, 26, 0, 30, 24, 24, 24}
	fixed := 0.0
	for _, w := range widths {
		fixed += w
	}
	widths[2] = contentW - fixed
	heads := []string{"#", "P.O. No", "Design No", "Chalan No", "Piece", "Mtr", "Takka"}
	aligns := []string{"C", "L", "L", "L", "R", "R", "R"}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range heads {
		pdf.CellFormat(widths[i], 8, h, "1", 0, aligns[i], true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, l := range doc.Lines {
		cells := []string{fmt.Sprint(l.No), l.PONo, l.DesignNo, l.ChalanNo, l.Piece, l.Mtr, l.Takka}
		if l.Blank {
			cells = []string{fmt.Sprint(l.No), "", "", "", "", "", ""}
		}
		for i, c := range cells {
			pdf.CellFormat(widths[i], 8, c, "1", 0, aligns[i], false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.SetFont("Helvetica", "B", 10)
	labelW := widths[0] + widths[1] + widths[2] + widths[3]
	pdf.CellFormat(labelW, 8, "Total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(widths[4], 8, doc.Totals.Piece.String(), "1", 0, "R", false, 0, "")
	pdf.CellFormat(widths[5], 8, doc.Totals.Mtr.String(), "1", 0, "R", false, 0, "")
	pdf.CellFormat(widths[6], 8, doc.Totals.Takka.String(), "1", 1, "R", false, 0, "")

	pdf.Ln(8)
	opt := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	imageName := fmt.Sprintf("challan-barcode-%d", doc.ChallanNo)
	pdf.RegisterImageOptionsReader(imageName, opt, bytes.NewReader(barcodePNG))
	imgW, imgH := 90.0, 18.0
	y := pdf.GetY()
	pdf.ImageOptions(imageName, (pageW-imgW)/2, y, imgW, imgH, false, opt, 0, "")
	pdf.SetY(y + imgH + 2)
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, barcodeValue, "", 1, "C", false, 0, "")

	pdf.Ln(14)
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentW/2, 6, "Receiver's Signature", "T", 0, "L", false, 0, "")
	pdf.CellFormat(contentW/2, 6, "Authorised Signatory", "T", 1, "R", false, 0, "")

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
