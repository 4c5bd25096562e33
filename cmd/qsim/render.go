package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// basisLabel writes state i of n qubits as a ket, q[n-1] leftmost.
func basisLabel(i, n int) string {
	if n == 0 {
		return "|>"
	}
	return fmt.Sprintf("|%0*b>", n, i)
}

/*
renderHistogram draws one bar per basis state with probability above
minShownP, at most maxBars of them.
*/
func renderHistogram(probs []float64, qubits int, styled bool) string {
	var b strings.Builder
	shown := 0

	for i, p := range probs {
		if p < minShownP {
			continue
		}
		if shown == maxBars {
			fmt.Fprintf(&b, "... %d more\n", countAbove(probs[i:], minShownP))
			break
		}
		shown++

		filled := int(p*barWidth + 0.5)
		bar := strings.Repeat("█", filled) + strings.Repeat("·", barWidth-filled)
		label := fmt.Sprintf("%-*s", labelWidth, basisLabel(i, qubits))

		if styled {
			label = labelStyle.Render(label)
			bar = barStyle.Render(strings.Repeat("█", filled)) + dimStyle.Render(strings.Repeat("·", barWidth-filled))
		}

		fmt.Fprintf(&b, "%s %s %6.4f\n", label, bar, p)
	}

	return strings.TrimRight(b.String(), "\n")
}

func countAbove(probs []float64, tol float64) int {
	n := 0
	for _, p := range probs {
		if p >= tol {
			n++
		}
	}
	return n
}

func renderCbits(cbits []bool) string {
	if len(cbits) == 0 {
		return "c: -"
	}
	var b strings.Builder
	for i := len(cbits) - 1; i >= 0; i-- {
		if cbits[i] {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return "c: " + b.String()
}

// renderProgram lists the instructions around the cursor.
func renderProgram(p *Program, pc, height int) string {
	var lines []string
	start := max(0, pc-height/2)
	end := min(len(p.Instructions), start+height)

	for i := start; i < end; i++ {
		text := fmt.Sprintf("%3d  %s", p.Instructions[i].Line, p.Instructions[i].Source)
		if i == pc {
			lines = append(lines, cursorStyle.Render("> "+text))
		} else {
			lines = append(lines, dimStyle.Render("  "+text))
		}
	}

	if pc >= len(p.Instructions) {
		lines = append(lines, cursorStyle.Render("> end"))
	}

	return strings.Join(lines, "\n")
}

func (m model) view() string {
	program := programStyle.Render(
		titleStyle.Render("program") + "\n" + renderProgram(m.runner.Program(), m.runner.PC(), m.programHeight()),
	)

	hist := histogramStyle.Render(
		titleStyle.Render("probabilities") + "\n" +
			renderHistogram(m.runner.Histogram(), m.runner.Program().Qubits, true) + "\n\n" +
			labelStyle.Render(renderCbits(m.runner.Cbits())),
	)

	out := lipgloss.JoinHorizontal(lipgloss.Top, program, hist)

	if m.err != nil {
		out += "\n" + errorStyle.Render(m.err.Error())
	}

	return out + "\n" + m.help.View(m.keys)
}
