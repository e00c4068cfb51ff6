// Package ui renders issues for the terminal and opens URLs in the browser
package ui

import (
	"cmp"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/cli/go-gh/v2/pkg/browser"
	"github.com/cli/go-gh/v2/pkg/tableprinter"
	"github.com/cli/go-gh/v2/pkg/term"

	"github.com/rubrical-studios/gh-gfi/internal/api"
)

// Output describes a render target
type Output struct {
	W     io.Writer
	TTY   bool
	Width int
	Color bool
}

// DetectOutput inspects the terminal when w is the process stdout.
// Any other writer is treated as a plain, uncolored pipe.
func DetectOutput(w io.Writer) Output {
	if w != os.Stdout {
		return Output{W: w}
	}
	t := term.FromEnv()
	out := Output{W: w, TTY: t.IsTerminalOutput(), Color: t.IsColorEnabled()}
	if out.TTY {
		if width, _, err := t.Size(); err == nil {
			out.Width = width
		}
	}
	if out.Width <= 0 {
		out.Width = 120
	}
	return out
}

var (
	badgeStyles = map[api.Difficulty]lipgloss.Style{
		api.DifficultyBeginner: lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Bold(true),
		api.DifficultyEasy:     lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true),
		api.DifficultyMedium:   lipgloss.NewStyle().Foreground(lipgloss.Color("226")),
		api.DifficultyHard:     lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		api.DifficultyExpert:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}
	unknownStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	headingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("63")).
			Padding(0, 1)

	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// DifficultyBadge returns the tier name, colored when color is set
func DifficultyBadge(d api.Difficulty, color bool) string {
	label := d.String()
	if !color {
		return label
	}
	if style, ok := badgeStyles[d]; ok {
		return style.Render(label)
	}
	return unknownStyle.Render(label)
}

// Heading renders a section title
func Heading(title string, color bool) string {
	if !color {
		return title
	}
	return headingStyle.Render(title)
}

// Muted renders secondary text
func Muted(s string, color bool) string {
	if !color {
		return s
	}
	return mutedStyle.Render(s)
}

// FormatEffort renders an estimate in minutes as "45m" or "1.5h"
func FormatEffort(minutes float64) string {
	switch {
	case minutes <= 0:
		return "-"
	case minutes < 60:
		return strconv.FormatFloat(minutes, 'f', 0, 64) + "m"
	default:
		hours := math.Round(api.UnitHours.FromMinutes(minutes)*10) / 10
		return strconv.FormatFloat(hours, 'f', -1, 64) + "h"
	}
}

// RenderIssues writes issues as a table numbered from start (1-based)
func RenderIssues(out Output, issues []api.Issue, start int) error {
	tp := tableprinter.New(out.W, out.TTY, out.Width)
	tp.AddHeader([]string{"#", "DIFFICULTY", "EFFORT", "LANGUAGE", "REPOSITORY", "TITLE", "URL"})

	for i, issue := range issues {
		language := issue.Language
		if language == "" {
			language = "-"
		}
		tp.AddField(strconv.Itoa(start + i))
		tp.AddField(DifficultyBadge(issue.Difficulty, out.Color))
		tp.AddField(FormatEffort(issue.EstimatedMinutes))
		tp.AddField(language)
		tp.AddField(issue.Repository.FullName())
		tp.AddField(issue.Title)
		tp.AddField(issue.URL)
		tp.EndRow()
	}

	return tp.Render()
}

// RenderDistribution writes "name  count" rows sorted by count, largest first
func RenderDistribution(out Output, title string, dist map[string]int) error {
	if len(dist) == 0 {
		return nil
	}
	fmt.Fprintln(out.W, Heading(title, out.Color))

	tp := tableprinter.New(out.W, out.TTY, out.Width)
	for _, e := range sortedCounts(dist) {
		tp.AddField(e.name)
		tp.AddField(strconv.Itoa(e.count))
		tp.EndRow()
	}
	return tp.Render()
}

type countEntry struct {
	name  string
	count int
}

func sortedCounts(dist map[string]int) []countEntry {
	entries := make([]countEntry, 0, len(dist))
	for name, count := range dist {
		entries = append(entries, countEntry{name: name, count: count})
	}
	slices.SortFunc(entries, func(a, b countEntry) int {
		if a.count != b.count {
			return cmp.Compare(b.count, a.count)
		}
		return cmp.Compare(strings.ToLower(a.name), strings.ToLower(b.name))
	})
	return entries
}

// OpenInBrowser opens url with the user's configured browser
func OpenInBrowser(url string) error {
	b := browser.New("", os.Stdout, os.Stderr)
	if err := b.Browse(url); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}
