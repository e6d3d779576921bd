// Package render draws lattice conformations as text grids.
//
// Monomers sit on even rows and columns; the odd cells between two
// consecutive monomers carry the bond, '-' for horizontal and '|' for
// vertical. The top row is the largest Y.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"hpfold/internal/engine"
	"hpfold/internal/lattice"
	"hpfold/internal/model"
)

type Options struct {
	// Color styles H and P cells for terminals.
	Color bool
}

var (
	hydrophobicStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	polarStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	bondStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Conformation renders c with the monomer letters of seq.
func Conformation(seq model.Sequence, c model.Conformation, opts Options) (string, error) {
	if len(seq) != len(c) {
		return "", fmt.Errorf("%w: %d points for %d monomers", lattice.ErrInvalidStructure, len(c), len(seq))
	}
	if len(c) == 0 {
		return "", nil
	}
	if !lattice.IsSelfAvoidingWalk(c) {
		return "", fmt.Errorf("%w: not a self-avoiding walk", lattice.ErrInvalidStructure)
	}

	minX, maxX, minY, maxY := bounds(c)
	width := 2*(maxX-minX) + 1
	height := 2*(maxY-minY) + 1

	grid := make([][]string, height)
	for r := range grid {
		grid[r] = make([]string, width)
		for col := range grid[r] {
			grid[r][col] = " "
		}
	}

	cell := func(p model.Point) (int, int) {
		return 2 * (maxY - p.Y), 2 * (p.X - minX)
	}
	for i, p := range c {
		r, col := cell(p)
		grid[r][col] = letter(seq[i], opts)
		if i == 0 {
			continue
		}
		pr, pcol := cell(c[i-1])
		bond := "-"
		if pcol == col {
			bond = "|"
		}
		if opts.Color {
			bond = bondStyle.Render(bond)
		}
		grid[(r+pr)/2][(col+pcol)/2] = bond
	}

	var b strings.Builder
	for _, row := range grid {
		b.WriteString(strings.TrimRight(strings.Join(row, ""), " "))
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// Frames writes every snapshot under a step header, separated by blank lines.
func Frames(w io.Writer, seq model.Sequence, frames []engine.Snapshot, opts Options) error {
	for i, frame := range frames {
		grid, err := Conformation(seq, frame.Conformation, opts)
		if err != nil {
			return fmt.Errorf("frame %d (step %d): %w", i, frame.Step, err)
		}
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "step %d\n%s", frame.Step, grid); err != nil {
			return err
		}
	}
	return nil
}

func letter(m model.Monomer, opts Options) string {
	s := m.String()
	if !opts.Color {
		return s
	}
	if m == model.Hydrophobic {
		return hydrophobicStyle.Render(s)
	}
	return polarStyle.Render(s)
}

func bounds(c model.Conformation) (minX, maxX, minY, maxY int) {
	minX, maxX = c[0].X, c[0].X
	minY, maxY = c[0].Y, c[0].Y
	for _, p := range c[1:] {
		minX = min(minX, p.X)
		maxX = max(maxX, p.X)
		minY = min(minY, p.Y)
		maxY = max(maxY, p.Y)
	}
	return minX, maxX, minY, maxY
}
