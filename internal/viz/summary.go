package viz

import (
	"fmt"
	"sort"
	"strings"

	"github.com/san-kum/hydrorig/internal/dynamo"
	"github.com/san-kum/hydrorig/internal/rig"
)

// RenderSummary describes a finished (or aborted) run.
func RenderSummary(name string, tr *dynamo.Trace, runErr error) string {
	var sb strings.Builder

	sb.WriteString(Title.Render(name))
	sb.WriteString("  ")
	switch {
	case runErr != nil:
		sb.WriteString(StatusFail.Render("FAILED"))
	case tr != nil && len(tr.Warnings) > 0:
		sb.WriteString(StatusWarn.Render("WARNINGS"))
	default:
		sb.WriteString(StatusOK.Render("OK"))
	}
	sb.WriteString("\n")

	if runErr != nil {
		sb.WriteString(StatusFail.Render(runErr.Error()))
		sb.WriteString("\n")
	}
	if tr == nil {
		return Panel.Render(strings.TrimRight(sb.String(), "\n"))
	}

	if last, ok := tr.Last(); ok {
		row(&sb, "t", fmt.Sprintf("%.6g s", last.Time))
	}
	row(&sb, "records", fmt.Sprintf("%d", len(tr.Records)))
	row(&sb, "steps", fmt.Sprintf("%d (%d rejected)", tr.StepsTaken, tr.Rejected))

	names := make([]string, 0, len(tr.Metrics))
	for k := range tr.Metrics {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		row(&sb, k, fmt.Sprintf("%.6g", tr.Metrics[k]))
	}

	for _, w := range tr.Warnings {
		n := tr.WarningCounts[string(w.Kind)+"/"+w.Source]
		sb.WriteString(StatusWarn.Render(fmt.Sprintf("! %s (x%d)", w, n)))
		sb.WriteString("\n")
	}

	if len(tr.Records) > 1 {
		sb.WriteString(MetricLabel.Render("theta "))
		sb.WriteString(SparklineChart(tr.Column(rig.IdxTheta), 48))
	}

	return Panel.Render(strings.TrimRight(sb.String(), "\n"))
}

func row(sb *strings.Builder, label, value string) {
	sb.WriteString(MetricLabel.Render(fmt.Sprintf("%-16s", label)))
	sb.WriteString(MetricValue.Render(value))
	sb.WriteString("\n")
}
