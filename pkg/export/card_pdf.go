package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// CardData carries everything printed on a membership card.
type CardData struct {
	ClubName     string
	ClubTagline  string
	RegistryLine string
	MemberName   string
	MembershipID string
	Phone        string
	BloodGroup   string
	ValidUpto    string
}

// CardRenderer produces membership card PDFs.
type CardRenderer struct{}

// NewCardRenderer constructs a card renderer.
func NewCardRenderer() *CardRenderer {
	return &CardRenderer{}
}

// Render creates a landscape card-format PDF for one member.
func (r *CardRenderer) Render(data CardData) ([]byte, error) {
	if data.MemberName == "" || data.MembershipID == "" {
		return nil, fmt.Errorf("card requires member name and membership id")
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "L",
		UnitStr:        "mm",
		Size:           gofpdf.SizeType{Wd: 171, Ht: 95},
	})
	pdf.SetMargins(8, 8, 8)
	pdf.AddPage()

	pdf.SetFillColor(31, 41, 55)
	pdf.Rect(0, 0, 171, 26, "F")
	pdf.SetTextColor(250, 204, 21)
	pdf.SetFont("Arial", "B", 18)
	pdf.CellFormat(0, 10, data.ClubName, "", 1, "C", false, 0, "")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 5, data.ClubTagline, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 7)
	pdf.CellFormat(0, 4, data.RegistryLine, "", 1, "C", false, 0, "")

	pdf.Ln(8)
	pdf.SetTextColor(202, 138, 4)
	pdf.SetFont("Arial", "B", 20)
	pdf.CellFormat(0, 10, strings.ToUpper(data.MemberName), "", 1, "L", false, 0, "")
	pdf.SetTextColor(31, 41, 55)
	pdf.SetFont("Arial", "B", 13)
	pdf.CellFormat(0, 7, data.MembershipID, "", 1, "L", false, 0, "")

	pdf.Ln(4)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Arial", "", 10)
	rows := [][2]string{
		{"MOBILE NO", data.Phone},
		{"BLOOD GROUP", orNA(data.BloodGroup)},
		{"VALID UPTO", orNA(data.ValidUpto)},
	}
	for _, row := range rows {
		pdf.CellFormat(38, 6, row[0], "", 0, "L", false, 0, "")
		pdf.CellFormat(4, 6, ":", "", 0, "C", false, 0, "")
		pdf.CellFormat(0, 6, row[1], "", 1, "L", false, 0, "")
	}

	pdf.SetY(-18)
	pdf.SetFont("Arial", "I", 8)
	pdf.SetTextColor(55, 65, 81)
	pdf.CellFormat(0, 4, "Authorised Signatory", "", 1, "R", false, 0, "")
	pdf.CellFormat(0, 4, "Gen. Secretary", "", 1, "R", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render card pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func orNA(value string) string {
	if value == "" {
		return "N/A"
	}
	return value
}
