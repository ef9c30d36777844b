package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jpalmerr/releaseboard/internal/state"
)

// RenderReport renders v as a static report: the selected release, its
// verdict, one line per check and any error banners.
func RenderReport(v state.View) string {
	var b strings.Builder
	if errs := renderErrors(v); errs != "" {
		b.WriteString(errs)
		b.WriteString("\n\n")
	}
	b.WriteString(renderRelease(v, true))
	if sv := renderServiceVersion(v); sv != "" {
		b.WriteString("\n\n")
		b.WriteString(sv)
	}
	b.WriteString("\n")
	return b.String()
}

// renderRelease renders the main panel for the view's phase. Links are
// only printed in reports; the interactive UI keeps rows on one line.
func renderRelease(v state.View, withLinks bool) string {
	switch v.Phase {
	case state.PhaseIdle:
		return "Learn more about a specific version. " +
			headingStyle.Render("Select a version number from the channel menu.")
	case state.PhaseLoading:
		return mutedStyle.Render(pendingGlyph + " loading " + capitalize(v.Product) + " " + v.Version)
	case state.PhaseError:
		return errorStyle.Render("Pollbot error: " + v.ReleaseError)
	}

	var b strings.Builder
	heading := capitalize(v.Product) + " " + v.Version
	if v.Channel != "" {
		heading += " (" + v.Channel + ")"
	}
	b.WriteString(headingStyle.Render(heading))
	b.WriteString("  ")
	b.WriteString(verdictStyles[v.Verdict].Render(verdictText(v.Verdict)))
	if v.Refreshing && v.Verdict != state.VerdictPending {
		b.WriteString(mutedStyle.Render("  (refreshing)"))
	}
	b.WriteString("\n")

	for _, c := range v.Checks {
		b.WriteString("\n")
		b.WriteString(renderCheck(c, withLinks))
	}
	return b.String()
}

func renderCheck(c state.CheckView, withLinks bool) string {
	style := labelStyles[c.Label]
	title := c.Title
	if !c.Actionable {
		title = optionalStyle.Render(title + " (optional)")
	}

	if c.Pending {
		return fmt.Sprintf("  %s %s  %s", mutedStyle.Render(pendingGlyph), title, mutedStyle.Render("pending"))
	}

	line := fmt.Sprintf("  %s %s  %s", style.Render(labelGlyphs[c.Label]), title, style.Render(c.Message))
	if withLinks && c.Link != "" {
		line += "\n    " + mutedStyle.Render(c.Link)
	}
	return line
}

func renderErrors(v state.View) string {
	lines := make([]string, 0, len(v.Errors))
	for _, e := range v.Errors {
		lines = append(lines, errorStyle.Render(e.Text))
	}
	return strings.Join(lines, "\n")
}

func renderChannels(v state.View) string {
	lines := []string{headingStyle.Render("Channels")}
	for _, row := range v.Channels {
		version := row.Version
		if version == "" {
			version = pendingGlyph
		}
		lines = append(lines, fmt.Sprintf("%s: %s", capitalize(row.Channel), version))
	}
	return sidebarStyle.Render(strings.Join(lines, "\n"))
}

func renderServiceVersion(v state.View) string {
	if v.ServiceVersion == nil {
		return ""
	}
	text := "Pollbot version: " + v.ServiceVersion.Version
	if v.ServiceVersion.URL != "" {
		text += " (" + v.ServiceVersion.URL + ")"
	}
	return mutedStyle.Render(text)
}

// renderScreen lays out the full interactive screen.
func renderScreen(title string, v state.View, help string) string {
	sections := []string{titleStyle.Render(" " + title + " ")}
	if errs := renderErrors(v); errs != "" {
		sections = append(sections, errs)
	}
	sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top,
		renderChannels(v),
		renderRelease(v, false),
	))
	footer := help
	if sv := renderServiceVersion(v); sv != "" {
		footer = sv + "  " + help
	}
	sections = append(sections, mutedStyle.Render(footer))
	return strings.Join(sections, "\n\n") + "\n"
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
