package tui

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/pmsmsolve/internal/pmsm"
	"github.com/san-kum/pmsmsolve/internal/viz"
)

type field int

const (
	fieldTorque field = iota
	fieldSpeed
	fieldKc
	fieldVaLim
	fieldIaLim
	numFields
)

var fieldNames = [numFields]string{"torque [Nm]", "speed [rad/s]", "kc_mtpa", "va_lim [V]", "ia_lim [A]"}

// Explorer is a bubbletea model that re-solves the operating point on
// every edit.
type Explorer struct {
	cond    pmsm.Condition
	values  [numFields]float64
	initial [numFields]float64
	steps   [numFields]float64

	cursor  int
	editing bool
	editBuf string
	theme   int

	sol     pmsm.Solution
	status  pmsm.Status
	history []float64
	err     error
}

func NewExplorer(cond *pmsm.Condition, torque, speed float64) Explorer {
	motor := *cond.Motor
	e := Explorer{cond: *cond}
	e.cond.Motor = &motor

	e.values = [numFields]float64{torque, speed, cond.KcMTPA, cond.VaLim, cond.IaLim}
	e.initial = e.values
	e.steps = [numFields]float64{
		0.01 * cond.IaLim * cond.Motor.PsiA * cond.Motor.Poles / 2,
		10,
		0.01,
		0.5,
		0.5,
	}
	e.solve()
	return e
}

func (e Explorer) Init() tea.Cmd { return nil }

func (e Explorer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		return e.handleKey(key)
	}
	return e, nil
}

func (e Explorer) handleKey(msg tea.KeyMsg) (Explorer, tea.Cmd) {
	if e.editing {
		switch msg.String() {
		case "enter":
			if v, err := strconv.ParseFloat(e.editBuf, 64); err == nil {
				e.values[e.cursor] = v
				e.solve()
			}
			e.editing = false
			e.editBuf = ""
		case "esc":
			e.editing = false
			e.editBuf = ""
		case "backspace":
			if len(e.editBuf) > 0 {
				e.editBuf = e.editBuf[:len(e.editBuf)-1]
			}
		default:
			s := msg.String()
			if len(s) == 1 && strings.ContainsAny(s, "0123456789.-e") {
				e.editBuf += s
			}
		}
		return e, nil
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return e, tea.Quit
	case "up", "k":
		if e.cursor > 0 {
			e.cursor--
		}
	case "down", "j":
		if e.cursor < int(numFields)-1 {
			e.cursor++
		}
	case "left", "h":
		e.adjust(-1)
	case "right", "l":
		e.adjust(1)
	case "-", "_":
		e.adjust(-10)
	case "+", "=":
		e.adjust(10)
	case "enter", "e":
		e.editing = true
		e.editBuf = strconv.FormatFloat(e.values[e.cursor], 'g', -1, 64)
	case "r":
		e.values = e.initial
		e.history = e.history[:0]
		e.solve()
	case "t":
		e.theme = (e.theme + 1) % len(viz.Themes)
		viz.ApplyTheme(viz.Themes[e.theme].Name)
	}
	return e, nil
}

func (e *Explorer) adjust(n float64) {
	e.values[e.cursor] += n * e.steps[e.cursor]
	e.solve()
}

func (e *Explorer) solve() {
	e.cond.KcMTPA = e.values[fieldKc]
	e.cond.VaLim = e.values[fieldVaLim]
	e.cond.IaLim = e.values[fieldIaLim]

	if e.err = e.cond.Validate(); e.err != nil {
		return
	}
	e.status = pmsm.SolveInto(&e.cond, &e.sol, e.values[fieldTorque], e.values[fieldSpeed])

	e.history = append(e.history, e.sol.VaCalc)
	if len(e.history) > historyLen {
		e.history = e.history[1:]
	}
}

func (e Explorer) Solution() (pmsm.Solution, pmsm.Status) { return e.sol, e.status }
func (e Explorer) Value(f int) float64                     { return e.values[f] }

func (e Explorer) View() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(viz.Title.Render("  pmsm current-reference explorer"))
	b.WriteString("\n\n")

	for i := field(0); i < numFields; i++ {
		line := fmt.Sprintf("%-16s %12.5g", fieldNames[i], e.values[i])
		if int(i) == e.cursor && e.editing {
			line = fmt.Sprintf("%-16s %12s_", fieldNames[i], e.editBuf)
		}
		if int(i) == e.cursor {
			b.WriteString("  " + viz.Selected.Render("▸ "+line) + "\n")
		} else {
			b.WriteString("    " + line + "\n")
		}
	}
	b.WriteString("\n")

	if e.err != nil {
		b.WriteString("  " + viz.StatusFail.Render(e.err.Error()) + "\n")
	} else {
		b.WriteString(viz.RenderSolution(&e.cond, e.values[fieldTorque], e.values[fieldSpeed], &e.sol, e.status))
		b.WriteString("\n  va history " + viz.SparklineChart(e.history, 40) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(viz.KeyHint.Render("  ↑↓ select  ←→ step  -/+ ×10  enter edit  r reset  t theme  q quit"))
	b.WriteString("\n")
	return b.String()
}

// Run starts the explorer on the alternate screen.
func Run(cond *pmsm.Condition, torque, speed float64) error {
	p := tea.NewProgram(NewExplorer(cond, torque, speed), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
