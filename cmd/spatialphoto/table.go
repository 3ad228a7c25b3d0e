package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// tableSpec describes a rendered table. Rows shorter than Headers are padded.
type tableSpec struct {
	Headers []string
	Rows    [][]string
	Aligns  []columnAlignment
	Footer  string
	// Bold renders the header row bold; only useful on a terminal.
	Bold bool
}

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	return tableSpec{Headers: headers, Rows: rows, Aligns: aligns}.render()
}

func (s tableSpec) render() string {
	columns := len(s.Headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	style := table.StyleRounded
	if s.Bold {
		style.Format.Header = text.FormatDefault
		style.Color.Header = text.Colors{text.Bold}
	}
	tw.SetStyle(style)

	tw.AppendHeader(toRow(s.Headers, columns))
	for _, row := range s.Rows {
		tw.AppendRow(toRow(row, columns))
	}
	if s.Footer != "" {
		tw.SetCaption("%s", s.Footer)
	}

	configs := make([]table.ColumnConfig, columns)
	for i := range configs {
		align := text.AlignLeft
		if i < len(s.Aligns) && s.Aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs[i] = table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft}
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

func toRow(values []string, columns int) table.Row {
	row := make(table.Row, columns)
	for i := range row {
		if i < len(values) {
			row[i] = values[i]
		} else {
			row[i] = ""
		}
	}
	return row
}
