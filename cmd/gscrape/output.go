package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/justchokingaround/gscrape/internal/providers"
)

const titleWidth = 40

var (
	colorAccent = lipgloss.Color("#be95ff")
	colorMuted  = lipgloss.Color("#767676")
	colorGreen  = lipgloss.Color("#42be65")
	colorRed    = lipgloss.Color("#ff5252")
	colorBlue   = lipgloss.Color("#78a9ff")
)

type styles struct {
	header lipgloss.Style
	label  lipgloss.Style
	muted  lipgloss.Style
	ok     lipgloss.Style
	bad    lipgloss.Style
	link   lipgloss.Style
}

func newStyles(color bool) styles {
	if !color {
		plain := lipgloss.NewStyle()
		return styles{header: plain, label: plain, muted: plain, ok: plain, bad: plain, link: plain}
	}
	return styles{
		header: lipgloss.NewStyle().Foreground(colorAccent).Bold(true),
		label:  lipgloss.NewStyle().Foreground(colorAccent),
		muted:  lipgloss.NewStyle().Foreground(colorMuted),
		ok:     lipgloss.NewStyle().Foreground(colorGreen),
		bad:    lipgloss.NewStyle().Foreground(colorRed),
		link:   lipgloss.NewStyle().Foreground(colorBlue).Underline(true),
	}
}

// truncate shortens text to maxWidth terminal cells, adding "..." when cut
func truncate(text string, maxWidth int) string {
	if runewidth.StringWidth(text) <= maxWidth {
		return text
	}

	width := 0
	for i, r := range text {
		width += runewidth.RuneWidth(r)
		if width > maxWidth-3 {
			return text[:i] + "..."
		}
	}
	return text
}

func updatedLabel(t, now time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

func yearLabel(year int) string {
	if year == 0 {
		return "----"
	}
	return fmt.Sprintf("%d", year)
}

func printResults(w io.Writer, st styles, provider string, results []providers.Metadata, now time.Time) {
	fmt.Fprintln(w, st.header.Render(fmt.Sprintf("%d results from %s", len(results), provider)))
	for i, m := range results {
		title := runewidth.FillRight(truncate(m.Title, titleWidth), titleWidth)
		fmt.Fprintf(w, "%3d. %s  %s  %-6s  %s  %s\n",
			i+1,
			title,
			yearLabel(m.Year),
			m.Type,
			st.label.Render(m.ID),
			st.muted.Render(updatedLabel(m.UpdatedAt, now)),
		)
	}
}

func printEpisodeIndex(w io.Writer, st styles, title string, index providers.EpisodeIndex) {
	seasons := index.Seasons()
	if len(seasons) == 0 {
		fmt.Fprintln(w, st.muted.Render(fmt.Sprintf("%s has no seasons", title)))
		return
	}

	total := 0
	for _, n := range index {
		total += n
	}
	fmt.Fprintln(w, st.header.Render(fmt.Sprintf("%s: %d seasons, %d episodes", title, len(seasons), total)))
	for _, s := range seasons {
		fmt.Fprintf(w, "  %s %d\n", st.label.Render(fmt.Sprintf("Season %2d:", s)), index[s])
	}
}

func printStream(w io.Writer, st styles, stream *providers.Stream) {
	heading := stream.Title
	if stream.Year > 0 {
		heading = fmt.Sprintf("%s (%d)", heading, stream.Year)
	}
	if stream.Type == providers.MediaTypeSeries {
		heading = fmt.Sprintf("%s S%02dE%02d", heading, stream.Season, stream.Episode)
	}
	fmt.Fprintln(w, st.header.Render(heading))

	fmt.Fprintf(w, "%s %s\n", st.label.Render("URL:     "), st.link.Render(stream.URL))
	if stream.Referrer != "" {
		fmt.Fprintf(w, "%s %s\n", st.label.Render("Referrer:"), stream.Referrer)
	}
	for _, sub := range stream.Subtitles {
		name := sub.Language
		if sub.Format != "" {
			name = fmt.Sprintf("%s [%s]", name, sub.Format)
		}
		fmt.Fprintf(w, "%s %s %s\n", st.label.Render("Subtitle:"), name, st.muted.Render(sub.URL))
	}
}

func printStatuses(w io.Writer, st styles, statuses []providers.ProviderStatus) {
	for _, s := range statuses {
		state := st.ok.Render("✓ " + s.Status)
		if !s.Healthy {
			state = st.bad.Render("✗ " + s.Status)
		}

		var details []string
		if r := s.LastResult; r != nil {
			details = append(details, r.URL, r.Duration.Round(time.Millisecond).String())
		}
		fmt.Fprintf(w, "%-10s %s %s\n", s.ProviderName, state, st.muted.Render(strings.Join(details, " ")))
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
