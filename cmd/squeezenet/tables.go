// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Padding(1, 4, 1, 4)

	headerStyle = lipgloss.NewStyle().Reverse(true).
			Padding(0, 2, 0, 2).Align(lipgloss.Center)
	cellStyle        = lipgloss.NewStyle().PaddingLeft(1).PaddingRight(1)
	shadedCellStyle  = cellStyle.Faint(true)
	blockOutputStyle = cellStyle.
				Foreground(lipgloss.AdaptiveColor{Light: "4", Dark: "12"}).
				Bold(true)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("99"))
)

// renderSection writes the title followed by the table.
func renderSection(w io.Writer, title string, table *lgtable.Table) {
	fmt.Fprintln(w, titleStyle.Render(title))
	fmt.Fprintln(w, table.Render())
}

func newTable(styleFn lgtable.StyleFunc) *lgtable.Table {
	return lgtable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		StyleFunc(styleFn)
}

// newSummaryTable returns a table of name/value pairs: names right aligned, values left aligned.
func newSummaryTable() *lgtable.Table {
	return newTable(func(row, col int) lipgloss.Style {
		s := cellStyle
		if row%2 == 1 {
			s = shadedCellStyle
		}
		if col == 0 {
			return s.Align(lipgloss.Right)
		}
		return s.Align(lipgloss.Left)
	})
}

// layersTable lists the layers of a model grouped by block.
//
// Consecutive rows of the same block share the same shade, and shades alternate from one block to the next.
// Layers outside of any block alternate shades row by row. The output row of each block is highlighted.
type layersTable struct {
	*lgtable.Table

	alignments []lipgloss.Position
	rowStyles  []lipgloss.Style
	lastBlock  string
	shaded     bool
}

// newLayersTable creates a layersTable with the given headers. Columns without an alignment are right aligned.
func newLayersTable(headers []string, alignments ...lipgloss.Position) *layersTable {
	t := &layersTable{alignments: alignments}
	t.Table = newTable(t.styleAt).Headers(headers...)
	return t
}

// AddLayer appends the row of a layer of the given block, which may be empty.
func (t *layersTable) AddLayer(block string, isBlockOutput bool, cells ...string) {
	if len(t.rowStyles) > 0 && (block == "" || block != t.lastBlock) {
		t.shaded = !t.shaded
	}
	t.lastBlock = block
	s := cellStyle
	switch {
	case isBlockOutput:
		s = blockOutputStyle
	case t.shaded:
		s = shadedCellStyle
	}
	t.rowStyles = append(t.rowStyles, s)
	t.Row(cells...)
}

func (t *layersTable) styleAt(row, col int) lipgloss.Style {
	if row < 0 || row >= len(t.rowStyles) {
		return headerStyle
	}
	alignment := lipgloss.Right
	if col < len(t.alignments) {
		alignment = t.alignments[col]
	}
	return t.rowStyles[row].Align(alignment)
}
