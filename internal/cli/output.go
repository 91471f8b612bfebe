// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/huythanhnguyen/phongthuyso-cli/internal/api"
	"github.com/huythanhnguyen/phongthuyso-cli/internal/display"
)

// column picks a field of a list item for a table.
type column struct {
	header string
	field  string
	format func(any) string // nil uses cell
}

// showList prints a reply that is a JSON list of objects as a table in
// text mode. Anything else, and every structured format, is printed as is.
func (a *App) showList(resp *api.Response, columns []column) error {
	items, ok := listOf(resp.Data)
	if !ok || a.printer.Format() != display.FormatText {
		return a.show(resp)
	}

	headers := make([]string, len(columns))
	for i, c := range columns {
		headers[i] = c.header
	}
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		row := make([]string, len(columns))
		for i, c := range columns {
			format := c.format
			if format == nil {
				format = cell
			}
			row[i] = format(item[c.field])
		}
		rows = append(rows, row)
	}
	return a.printer.Table(headers, rows)
}

// listOf accepts a bare list or an object wrapping exactly one list.
func listOf(v any) ([]map[string]any, bool) {
	if obj, ok := v.(map[string]any); ok {
		var inner []any
		for _, field := range obj {
			if l, ok := field.([]any); ok {
				if inner != nil {
					return nil, false
				}
				inner = l
			}
		}
		if inner == nil {
			return nil, false
		}
		v = inner
	}

	list, ok := v.([]any)
	if !ok {
		return nil, false
	}
	items := make([]map[string]any, 0, len(list))
	for _, e := range list {
		m, ok := e.(map[string]any)
		if !ok {
			return nil, false
		}
		items = append(items, m)
	}
	return items, true
}

// cell renders a decoded JSON value for a table.
func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if x {
			return "yes"
		}
		return "no"
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = cell(e)
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(x)
	}
}

// masked shows only the last four characters of a secret.
func masked(v any) string {
	s := cell(v)
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return "****" + s[len(s)-4:]
}
