package main

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

const summaryLabelWidth = 14

// printer renders one command's result either as JSON or as terminal text.
// Colour is only used for terminal text written to a TTY.
type printer struct {
	out   io.Writer
	json  bool
	color bool
}

func newPrinter(cmd *cobra.Command, asJSON bool) printer {
	out := cmd.OutOrStdout()
	return printer{out: out, json: asJSON, color: !asJSON && shouldColorize(out)}
}

// emitJSON writes v as indented JSON. A nil slice is written as [] so list
// output always decodes to an array.
func (p printer) emitJSON(v any) error {
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Slice && rv.IsNil() {
		v = reflect.MakeSlice(rv.Type(), 0, 0).Interface()
	}
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// column describes one table column. tint, when set, picks the colours for
// a cell from its text.
type column struct {
	title string
	right bool
	tint  func(cell string) text.Colors
}

func (p printer) table(columns []column, rows [][]string) {
	if len(columns) == 0 {
		return
	}
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, col := range columns {
		header[i] = col.title
		cfg := table.ColumnConfig{Number: i + 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft}
		if col.right {
			cfg.Align = text.AlignRight
		}
		if p.color && col.tint != nil {
			tint := col.tint
			cfg.Transformer = func(val any) string {
				cell := fmt.Sprint(val)
				return p.paint(cell, tint(cell))
			}
		}
		configs[i] = cfg
	}
	tw.AppendHeader(header)
	for _, row := range rows {
		r := make(table.Row, len(columns))
		for i := range r {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}
	tw.SetColumnConfigs(configs)
	fmt.Fprintln(p.out, tw.Render())
}

// paint wraps value in colors when the printer is colouring output.
func (p printer) paint(value string, colors text.Colors) string {
	if !p.color || len(colors) == 0 || value == "" {
		return value
	}
	return text.Escape(value, colors.EscapeSeq())
}

func (p printer) section(title string) {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	fmt.Fprintln(p.out, p.paint(line, text.Colors{text.FgBlue, text.Bold}))
}

func (p printer) summary(label, value string) {
	fmt.Fprintf(p.out, "  %-*s %s\n", summaryLabelWidth, label+":", value)
}

func (p printer) line(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

func (p printer) warn(format string, args ...any) {
	fmt.Fprintln(p.out, p.paint(fmt.Sprintf(format, args...), text.Colors{text.FgYellow}))
}

func (p printer) fail(format string, args ...any) {
	fmt.Fprintln(p.out, p.paint(fmt.Sprintf(format, args...), text.Colors{text.FgRed}))
}
