// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package display

import (
	"strings"

	"github.com/huythanhnguyen/phongthuyso-cli/internal/util"
)

// MaxColumnWidth caps a table column in text mode.
const MaxColumnWidth = 40

// Table writes rows under headers. Text mode aligns columns by display
// width; JSON and YAML emit a list of objects keyed by header.
func (p *Printer) Table(headers []string, rows [][]string) error {
	if p.opts.Format != FormatText {
		records := make([]map[string]string, 0, len(rows))
		for _, row := range rows {
			rec := make(map[string]string, len(headers))
			for i, h := range headers {
				if i < len(row) {
					rec[h] = row[i]
				}
			}
			records = append(records, rec)
		}
		return p.Print(records)
	}

	if len(rows) == 0 {
		return p.writeln(p.out, p.styles.Muted.Render("(none)"))
	}

	widths := columnWidths(headers, rows)

	cells := make([]string, len(headers))
	for i, h := range headers {
		cells[i] = p.styles.TableHeader.Render(util.PadWidth(h, widths[i]))
	}
	if err := p.writeln(p.out, strings.TrimRight(strings.Join(cells, "  "), " ")); err != nil {
		return err
	}

	for _, row := range rows {
		for i := range headers {
			var cell string
			if i < len(row) {
				cell = row[i]
			}
			cells[i] = util.PadWidth(oneLine(cell), widths[i])
		}
		if err := p.writeln(p.out, strings.TrimRight(strings.Join(cells, "  "), " ")); err != nil {
			return err
		}
	}
	return nil
}

func columnWidths(headers []string, rows [][]string) []int {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = util.StringWidth(h)
	}
	for _, row := range rows {
		for i := 0; i < len(headers) && i < len(row); i++ {
			if w := util.StringWidth(oneLine(row[i])); w > widths[i] {
				widths[i] = w
			}
		}
	}
	for i := range widths {
		widths[i] = min(widths[i], MaxColumnWidth)
	}
	return widths
}
