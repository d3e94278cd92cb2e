package infra

// pdf.go — Cierre de caja report generation using go-pdf/fpdf.
// The report summarizes a closed session: opening balance, ingreso/egreso
// totals, movement count, and the computed closing balance. It is attached
// to the best-effort cierre notification email.

import (
	"fmt"
	"os"
	"path/filepath"

	"tiendapos/internal/model"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// GenerateCierrePDF renders the closing report for a session.
// storagePath is the directory where the PDF is written (created if needed).
// Returns the absolute path to the generated file.
func GenerateCierrePDF(sesion *model.SesionCaja, ingresos, egresos decimal.Decimal, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("cierre_caja_%d.pdf", sesion.ID)
	filePath := filepath.Join(storagePath, fileName)

	pdf := fpdf.New("P", "mm", "A5", "")
	pdf.SetMargins(12, 12, 12)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 24

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(contentW, 8, "Cierre de Caja", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Sesion #%d — Tienda %d", sesion.ID, sesion.TiendaID), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	// ── Session data ─────────────────────────────────────────────────────────
	line := func(label, value string) {
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(contentW*0.55, 6, label, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(contentW*0.45, 6, value, "", 1, "R", false, 0, "")
	}

	line("Apertura", sesion.AbiertaEn.Format("02/01/2006 15:04"))
	if sesion.CerradaEn != nil {
		line("Cierre", sesion.CerradaEn.Format("02/01/2006 15:04"))
	}
	line("Saldo inicial", "$ "+sesion.SaldoInicial.StringFixed(2))
	line("Total ingresos", "$ "+ingresos.StringFixed(2))
	line("Total egresos", "$ "+egresos.StringFixed(2))
	line("Movimientos", fmt.Sprintf("%d", len(sesion.Movimientos)))

	pdf.Ln(3)
	pdf.SetDrawColor(0, 0, 0)
	pdf.Line(12, pdf.GetY(), 12+contentW, pdf.GetY())
	pdf.Ln(2)

	saldoCierre := sesion.SaldoInicial.Add(ingresos).Sub(egresos)
	if sesion.SaldoCierre != nil {
		saldoCierre = *sesion.SaldoCierre
	}
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(contentW*0.55, 8, "Saldo de cierre", "", 0, "L", false, 0, "")
	pdf.CellFormat(contentW*0.45, 8, "$ "+saldoCierre.StringFixed(2), "", 1, "R", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write %s: %w", filePath, err)
	}
	return filePath, nil
}
