package main

import (
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"plexshelf/internal/api"
)

func shouldColorize(writer io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// statusColors keys on the first word so "approved (applied)" stays green.
func statusColors(cell string) text.Colors {
	status, _, _ := strings.Cut(cell, " ")
	switch status {
	case "approved":
		return text.Colors{text.FgGreen}
	case "rejected":
		return text.Colors{text.FgRed}
	case "pending":
		return text.Colors{text.FgYellow}
	default:
		return nil
	}
}

// confidenceColors highlights scores at or above the default auto-approve
// threshold.
func confidenceColors(cell string) text.Colors {
	score, err := strconv.Atoi(cell)
	if err != nil || score < 95 {
		return nil
	}
	return text.Colors{text.Bold}
}

var matchColumns = []column{
	{title: "ID", right: true},
	{title: "Title"},
	{title: "Author"},
	{title: "Series"},
	{title: "Pos", right: true},
	{title: "Conf", right: true, tint: confidenceColors},
	{title: "Origin"},
	{title: "Status", tint: statusColors},
}

func matchRows(matches []api.Match) [][]string {
	rows := make([][]string, 0, len(matches))
	for _, m := range matches {
		status := m.Status
		if m.Applied {
			status += " (applied)"
		}
		rows = append(rows, []string{
			strconv.FormatInt(m.ID, 10),
			truncate(m.ItemTitle, 48),
			truncate(m.ItemAuthor, 24),
			m.SeriesName,
			m.Position,
			strconv.Itoa(m.Confidence),
			m.Origin,
			status,
		})
	}
	return rows
}

var seriesColumns = []column{
	{title: "ID", right: true},
	{title: "Series"},
	{title: "Author"},
	{title: "Pending", right: true, tint: countColors(text.FgYellow)},
	{title: "Approved", right: true, tint: countColors(text.FgGreen)},
	{title: "Applied", right: true},
}

// countColors tints non-zero counts.
func countColors(fg text.Color) func(string) text.Colors {
	return func(cell string) text.Colors {
		if cell == "" || cell == "0" {
			return nil
		}
		return text.Colors{fg}
	}
}

func truncate(value string, limit int) string {
	runes := []rune(strings.TrimSpace(value))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit-1]) + "…"
}
