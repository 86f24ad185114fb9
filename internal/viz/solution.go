package viz

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/pmsmsolve/internal/pmsm"
	"github.com/san-kum/pmsmsolve/internal/sweep"
)

const barWidth = 24

func row(label, value string) string {
	return MetricLabel.Render(label) + MetricValue.Render(value)
}

func StatusBadge(status pmsm.Status) string {
	if status == pmsm.StatusOK {
		return StatusOK.Render("● " + status.String())
	}
	return StatusFail.Render("✕ " + status.String())
}

// RenderSolution summarises one operating point against the limits of cond.
func RenderSolution(cond *pmsm.Condition, torque, speed float64, sol *pmsm.Solution, status pmsm.Status) string {
	var b strings.Builder

	b.WriteString(HeaderStyle.Render(fmt.Sprintf("T=%.4g Nm  ω=%.4g rad/s", torque, speed)))
	b.WriteString("\n")

	mode := sol.Mode.String()
	if sol.FW {
		mode += " + fw"
	}
	b.WriteString(row("status", "") + StatusBadge(status) + "\n")
	b.WriteString(row("mode", mode) + "\n")
	b.WriteString(row("iterations", fmt.Sprintf("%d mtpa / %d fw", sol.Iterations, sol.FWIterations)) + "\n")
	b.WriteString("\n")
	b.WriteString(row("id_ref", fmt.Sprintf("%9.4f A", sol.IdRef)) + "\n")
	b.WriteString(row("iq_ref", fmt.Sprintf("%9.4f A", sol.IqRef)) + "\n")
	b.WriteString(row("ia_ref", fmt.Sprintf("%9.4f A", sol.IaRef)) + "\n")
	b.WriteString(row("beta", fmt.Sprintf("%9.4f rad", sol.BetaRef)) + "\n")
	b.WriteString(row("vd / vq", fmt.Sprintf("%9.4f / %.4f V", sol.VdCalc, sol.VqCalc)) + "\n")
	b.WriteString(row("torque", fmt.Sprintf("%9.4f Nm", cond.Motor.Torque(sol.IdRef, sol.IqRef))) + "\n")
	b.WriteString("\n")

	va := sol.VaCalc / cond.VaLim
	ia := sol.CurrentAmplitude() / cond.IaLim
	b.WriteString(MetricLabel.Render("voltage") + UsageBar(va, barWidth) + fmt.Sprintf(" %6.2f / %g V", sol.VaCalc, cond.VaLim) + "\n")
	b.WriteString(MetricLabel.Render("current") + UsageBar(ia, barWidth) + fmt.Sprintf(" %6.2f / %g A", sol.CurrentAmplitude(), cond.IaLim))
	if sol.CurrentLimited {
		b.WriteString(" " + StatusWarn.Render("limited"))
	}

	return Panel.Render(b.String())
}

func RenderMetrics(metrics map[string]float64) string {
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]string, 0, len(names)+1)
	lines = append(lines, Title.Render("metrics"))
	for _, name := range names {
		lines = append(lines, row(name, fmt.Sprintf("%.6g", metrics[name])))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func RenderEnvelope(env []sweep.EnvelopePoint) string {
	var b strings.Builder
	b.WriteString(HeaderStyle.Render(fmt.Sprintf("%10s  %10s  %8s  %8s  %s", "speed", "max T", "Va", "Ia", "mode")))
	b.WriteString("\n")
	for _, p := range env {
		if !p.Feasible {
			b.WriteString(fmt.Sprintf("%10.1f  %s\n", p.Speed, StatusFail.Render("infeasible")))
			continue
		}
		mode := p.Solution.Mode.String()
		if p.Solution.FW {
			mode += "+fw"
		}
		b.WriteString(fmt.Sprintf("%10.1f  %10.4f  %8.3f  %8.3f  %s\n",
			p.Speed, p.MaxTorque, p.Solution.VaCalc, p.Solution.CurrentAmplitude(), mode))
	}
	return b.String()
}
