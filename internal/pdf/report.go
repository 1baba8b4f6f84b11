package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"malinoise/internal/models"
)

// Generator — интерфейс (удобно мокать в тестах)
type Generator interface {
	GenerateUserReport(data UserReportData) ([]byte, error)
}

type ReportGenerator struct {
	fontName string
}

type UserReportData struct {
	GeneratedBy string
	GeneratedAt time.Time
	Users       []*models.User
}

func NewReportGenerator() *ReportGenerator {
	// встроенного Helvetica хватает: отчёт целиком ASCII
	return &ReportGenerator{fontName: "Helvetica"}
}

func (g *ReportGenerator) GenerateUserReport(data UserReportData) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Malinoise - User Report", false)
	pdf.SetAuthor("Malinoise", false)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	// ===== Заголовок
	pdf.SetFont(g.fontName, "B", 18)
	pdf.CellFormat(0, 10, "User Report", "", 1, "C", false, 0, "")

	pdf.SetFont(g.fontName, "", 11)
	sub := fmt.Sprintf("Generated %s by %s",
		data.GeneratedAt.Format("02.01.2006 15:04"),
		data.GeneratedBy,
	)
	pdf.CellFormat(0, 7, sub, "", 1, "C", false, 0, "")
	g.hr(pdf)
	pdf.Ln(3)

	g.sectionTitle(pdf, "Summary")
	verified := 0
	for _, u := range data.Users {
		if u.IsVerified {
			verified++
		}
	}
	g.kvLine(pdf, "Total users", fmt.Sprintf("%d", len(data.Users)))
	g.kvLine(pdf, "Verified", fmt.Sprintf("%d", verified))
	pdf.Ln(2)
	g.hr(pdf)

	// ===== Таблица
	g.sectionTitle(pdf, "Users")
	pdf.SetFont(g.fontName, "B", 10)
	pdf.CellFormat(12, 7, "ID", "1", 0, "L", false, 0, "")
	pdf.CellFormat(62, 7, "Email", "1", 0, "L", false, 0, "")
	pdf.CellFormat(45, 7, "Name", "1", 0, "L", false, 0, "")
	pdf.CellFormat(18, 7, "Role", "1", 0, "L", false, 0, "")
	pdf.CellFormat(33, 7, "Registered", "1", 1, "L", false, 0, "")

	pdf.SetFont(g.fontName, "", 10)
	for _, u := range data.Users {
		pdf.CellFormat(12, 6, fmt.Sprintf("%d", u.ID), "1", 0, "L", false, 0, "")
		pdf.CellFormat(62, 6, u.Email, "1", 0, "L", false, 0, "")
		pdf.CellFormat(45, 6, u.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(18, 6, u.Role, "1", 0, "L", false, 0, "")
		pdf.CellFormat(33, 6, u.CreatedAt.Format("02.01.2006"), "1", 1, "L", false, 0, "")
	}

	// ===== Нумерация страниц
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(g.fontName, "", 10)
		pdf.CellFormat(0, 10,
			fmt.Sprintf("Page %d/{nb}", pdf.PageNo()),
			"", 0, "C", false, 0, "",
		)
	})

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("user report pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (g *ReportGenerator) sectionTitle(pdf *gofpdf.Fpdf, s string) {
	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 7, s, "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
}

func (g *ReportGenerator) kvLine(pdf *gofpdf.Fpdf, key, val string) {
	pdf.SetFont(g.fontName, "B", 11)
	pdf.CellFormat(45, 6, key+":", "", 0, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, val, "", 1, "L", false, 0, "")
}

func (g *ReportGenerator) hr(pdf *gofpdf.Fpdf) {
	y := pdf.GetY() + 1.5
	pdf.SetLineWidth(0.2)
	pdf.Line(20, y, 190, y)
	pdf.SetY(y + 2)
}
