package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ocn-network/ocn-common-go/schema"
)

const (
	// Colors
	primaryColor   = lipgloss.Color("#7C3AED")
	secondaryColor = lipgloss.Color("#10B981")
	errorColor     = lipgloss.Color("#EF4444")
	mutedColor     = lipgloss.Color("#6B7280")
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)

	statusOKStyle = lipgloss.NewStyle().
			Foreground(secondaryColor).
			Bold(true)

	statusErrorStyle = lipgloss.NewStyle().
				Foreground(errorColor).
				Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)
)

func printViolations(w io.Writer, violations []schema.Violation) {
	for _, v := range violations {
		path := v.Path
		if path == "" {
			path = "/"
		}
		fmt.Fprintf(w, "  %s: %s %s\n", path, v.Message, mutedStyle.Render("("+v.SchemaPath+")"))
	}
}

// printMetrics writes every counter in reg as "name{labels} value"
func printMetrics(w io.Writer, reg *prometheus.Registry) {
	if reg == nil {
		return
	}
	families, err := reg.Gather()
	if err != nil {
		fmt.Fprintf(w, "gather metrics: %v\n", err)
		return
	}

	var lines []string
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := ""
			for i, lp := range m.GetLabel() {
				if i > 0 {
					labels += ","
				}
				labels += fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue())
			}
			lines = append(lines, fmt.Sprintf("%s{%s} %g", mf.GetName(), labels, m.GetCounter().GetValue()))
		}
	}
	sort.Strings(lines)

	fmt.Fprintln(w, headerStyle.Render("metrics"))
	for _, line := range lines {
		fmt.Fprintf(w, "  %s\n", line)
	}
}
