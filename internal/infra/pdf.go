package infra

// pdf.go — build report generation using go-pdf/fpdf.
// Renders one A4 page per build: header with composite name and build
// metadata, then the reconstructed consumption tree with one indented row
// per consumed unit.

import (
	"fmt"
	"os"
	"path/filepath"

	"stocktrace/internal/dto"

	"github.com/go-pdf/fpdf"
)

// GenerateBuildReportPDF writes the consumption tree of one build to
// storagePath/build_{id}.pdf and returns the absolute path.
func GenerateBuildReportPDF(tree *dto.ConsumptionTree, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("build_%s.pdf", tree.BuildID)
	filePath := filepath.Join(storagePath, fileName)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	// ── Header ───────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(contentW, 8, "Production Build Report", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(contentW, 6, tree.Name, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Build %s — qty %d — %s", tree.BuildID, tree.Qty, tree.CreatedAt), "", 1, "L", false, 0, "")
	if tree.AssemblyCode != "" {
		pdf.CellFormat(contentW, 5, "Assembly code: "+tree.AssemblyCode, "", 1, "L", false, 0, "")
	}
	if tree.BoxCode != "" {
		pdf.CellFormat(contentW, 5, "Box: "+tree.BoxCode, "", 1, "L", false, 0, "")
	}
	if tree.OperatorName != "" {
		pdf.CellFormat(contentW, 5, "Operator: "+tree.OperatorName, "", 1, "L", false, 0, "")
	}
	pdf.Ln(2)
	pdf.Line(15, pdf.GetY(), pageW-15, pdf.GetY())
	pdf.Ln(2)

	// ── Column header ────────────────────────────────────────────────────
	col1 := contentW * 0.46 // name
	col2 := contentW * 0.12 // qty
	col3 := contentW * 0.30 // code
	col4 := contentW * 0.12 // source

	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(col1, 5, "Component", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 5, "Qty", "B", 0, "C", false, 0, "")
	pdf.CellFormat(col3, 5, "Code", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col4, 5, "Source", "B", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	writeNodes(pdf, tree.Children, 0, col1, col2, col3, col4)

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}

func writeNodes(pdf *fpdf.Fpdf, nodes []dto.ConsumptionNode, depth int, col1, col2, col3, col4 float64) {
	for _, node := range nodes {
		name := node.Name
		if node.RevisionLabel != "" {
			name += " (" + node.RevisionLabel + ")"
		}
		indent := ""
		for i := 0; i < depth; i++ {
			indent += "    "
		}
		name = truncate(indent+name, 46)
		code := truncate(node.Code, 34)
		pdf.CellFormat(col1, 5, name, "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 5, node.Quantity.String(), "", 0, "C", false, 0, "")
		pdf.CellFormat(col3, 5, code, "", 0, "L", false, 0, "")
		pdf.CellFormat(col4, 5, node.Source, "", 1, "C", false, 0, "")
		writeNodes(pdf, node.Children, depth+1, col1, col2, col3, col4)
	}
}

// truncate shortens s to max display runes, never splitting a multibyte
// character. Component names are free text.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
