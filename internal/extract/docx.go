package extract

import (
	"bytes"
	"strings"

	docx "github.com/fumiama/go-docx"
)

// docxText renders body paragraphs one per line; table cells are tab separated, one row per line.
func docxText(b []byte) (string, error) {
	doc, err := docx.Parse(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, item := range doc.Document.Body.Items {
		switch it := item.(type) {
		case *docx.Paragraph:
			sb.WriteString(it.String())
			sb.WriteByte('\n')
		case *docx.Table:
			writeTable(&sb, it)
		}
	}
	return sb.String(), nil
}

func writeTable(sb *strings.Builder, t *docx.Table) {
	for _, row := range t.TableRows {
		cells := make([]string, 0, len(row.TableCells))
		for _, cell := range row.TableCells {
			paras := make([]string, 0, len(cell.Paragraphs))
			for _, p := range cell.Paragraphs {
				paras = append(paras, p.String())
			}
			cells = append(cells, strings.Join(paras, " "))
		}
		sb.WriteString(strings.Join(cells, "\t"))
		sb.WriteByte('\n')
	}
}
