package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	rendezvous "github.com/glimte/rendezvous-go"
	"github.com/glimte/rendezvous-go/health"
)

var (
	secondaryColor = lipgloss.Color("#10B981")
	warningColor   = lipgloss.Color("#F59E0B")
	errorColor     = lipgloss.Color("#EF4444")
	mutedColor     = lipgloss.Color("#6B7280")
)

// styles are bound to one writer so colour is dropped when it is not a terminal
type styles struct {
	header    lipgloss.Style
	healthy   lipgloss.Style
	degraded  lipgloss.Style
	unhealthy lipgloss.Style
	muted     lipgloss.Style
}

func newStyles(out io.Writer) styles {
	r := lipgloss.NewRenderer(out)
	return styles{
		header:    r.NewStyle().Bold(true),
		healthy:   r.NewStyle().Foreground(secondaryColor).Bold(true),
		degraded:  r.NewStyle().Foreground(warningColor).Bold(true),
		unhealthy: r.NewStyle().Foreground(errorColor).Bold(true),
		muted:     r.NewStyle().Foreground(mutedColor),
	}
}

func (s styles) status(status health.Status) lipgloss.Style {
	switch status {
	case health.StatusHealthy:
		return s.healthy
	case health.StatusDegraded:
		return s.degraded
	default:
		return s.unhealthy
	}
}

func printMetrics(out io.Writer, client *rendezvous.Client) {
	s := newStyles(out)

	fmt.Fprintln(out, s.header.Render(fmt.Sprintf("%-20s %-10s %-10s %-10s %-15s %-15s",
		"Type", "Attempts", "Delivered", "Failed", "Avg Wait", "Max Wait")))
	for _, stat := range client.Metrics() {
		fmt.Fprintf(out, "%-20s %-10d %-10d %-10d %-15s %-15s\n",
			stat.MessageType, stat.Attempts, stat.Delivered, stat.Failed, stat.AverageDuration(), stat.MaxDuration)
	}
}

func printHealth(out io.Writer, overall health.OverallHealth) {
	s := newStyles(out)

	fmt.Fprintf(out, "System Health: %s\n", s.status(overall.Status).Render(string(overall.Status)))
	fmt.Fprintln(out, s.muted.Render(fmt.Sprintf("Checked in %s", overall.Duration)))
	fmt.Fprintln(out)

	names := make([]string, 0, len(overall.Checks))
	for name := range overall.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		check := overall.Checks[name]
		status := s.status(check.Status).Render(fmt.Sprintf("%-10s", strings.ToUpper(string(check.Status))))
		fmt.Fprintf(out, "  %-12s %s %s\n", name, status, check.Message)
		if check.Error != "" {
			fmt.Fprintf(out, "  %-12s %s\n", "", s.muted.Render("error: "+check.Error))
		}
	}
}
