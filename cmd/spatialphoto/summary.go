package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"spatialphoto/internal/convert"
	"spatialphoto/internal/source"
)

var modeCaser = cases.Upper(language.Und)

// modeLabel renders a mode for display: "MPO", "SBS", "PAIR".
func modeLabel(mode source.Mode) string {
	if mode == source.ModeUnknown {
		return "-"
	}
	return modeCaser.String(string(mode))
}

func renderSummary(summary convert.Summary, colorize bool) string {
	headers := []string{"Status", "Mode", "Source", "Output", "Size", "hFOV", "Baseline", "Detail"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft}

	rows := make([][]string, 0, len(summary.Results))
	for _, r := range summary.Results {
		status := "ok"
		detail := strings.Join(r.Warnings, ", ")
		if r.Status != convert.StatusSucceeded {
			status = "failed"
			detail = r.ErrorMessage
		}
		if colorize {
			status = statusColor(r.Status).Sprint(status)
		}
		row := []string{status, modeLabel(r.Mode), sourceLabel(r.Sources), "-", "-", "-", "-", detail}
		if r.Status == convert.StatusSucceeded {
			row[3] = r.Output
			row[4] = formatBytes(r.Bytes)
			row[5] = strconv.FormatFloat(r.HFOVDegrees, 'f', -1, 64) + "°"
			row[6] = strconv.FormatFloat(r.BaselineMeters*1000, 'f', -1, 64) + " mm"
		}
		rows = append(rows, row)
	}

	return tableSpec{
		Headers: headers,
		Rows:    rows,
		Aligns:  aligns,
		Footer:  fmt.Sprintf("%d succeeded, %d failed in %s", summary.Succeeded, summary.Failed, summary.Elapsed.Round(time.Millisecond)),
		Bold:    colorize,
	}.render()
}

func statusColor(status convert.Status) text.Colors {
	if status == convert.StatusSucceeded {
		return text.Colors{text.FgGreen}
	}
	return text.Colors{text.FgRed, text.Bold}
}

func sourceLabel(sources []string) string {
	names := make([]string, 0, len(sources))
	for _, s := range sources {
		names = append(names, filepath.Base(s))
	}
	return strings.Join(names, " + ")
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
