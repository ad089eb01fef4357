package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/skalibog/sigcore/pkg/models"
)

// Стили отчета
var (
	primaryColor = lipgloss.Color("#0077cc")
	successColor = lipgloss.Color("#33cc33")
	errorColor   = lipgloss.Color("#cc3300")
	mutedColor   = lipgloss.Color("#999999")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			Background(primaryColor).
			Padding(0, 1)
	headerStyle = lipgloss.NewStyle().Bold(true)
	buyStyle    = lipgloss.NewStyle().Foreground(successColor).Bold(true)
	sellStyle   = lipgloss.NewStyle().Foreground(errorColor).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(mutedColor)
	boxStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)
)

var columns = []string{"SYMBOL", "TIER", "DIR", "CONF", "EMIT", "SIZE%", "ENTRY", "SL", "TP1", "TP2", "TP3"}

// RenderSignals таблица результатов сканирования, символы по алфавиту
func RenderSignals(results map[string]*models.SignalResult) string {
	symbols := make([]string, 0, len(results))
	for s := range results {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	rows := [][]string{columns}
	for _, s := range symbols {
		rows = append(rows, row(results[s]))
	}

	widths := make([]int, len(columns))
	for _, r := range rows {
		for i, cell := range r {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	for i, r := range rows {
		cells := make([]string, len(r))
		for j, cell := range r {
			cells[j] = styleCell(i, j, cell).Width(widths[j]).Render(cell)
		}
		b.WriteString(strings.Join(cells, "  "))
		if i < len(rows)-1 {
			b.WriteByte('\n')
		}
	}

	title := titleStyle.Render(fmt.Sprintf("Сигналы: %d", len(symbols)))
	return lipgloss.JoinVertical(lipgloss.Left, title, boxStyle.Render(b.String()))
}

func row(r *models.SignalResult) []string {
	a := r.Analysis
	emit := "skip"
	if a.ShouldEmit {
		emit = "EMIT"
	}
	out := []string{
		r.Symbol,
		r.Tier.Name,
		string(a.Direction),
		fmt.Sprintf("%.0f", a.Confidence),
		emit,
		fmt.Sprintf("%.1f", a.PositionSizePercent),
	}
	if r.Trade == nil {
		return append(out, "-", "-", "-", "-", "-")
	}
	t := r.Trade
	return append(out,
		formatPrice(t.Entry),
		formatPrice(t.StopLoss),
		formatPrice(t.TakeProfit1),
		formatPrice(t.TakeProfit2),
		formatPrice(t.TakeProfit3),
	)
}

func styleCell(rowIdx, col int, cell string) lipgloss.Style {
	if rowIdx == 0 {
		return headerStyle
	}
	switch {
	case col == 2 && cell == string(models.DirectionBuy):
		return buyStyle
	case col == 2 && cell == string(models.DirectionSell):
		return sellStyle
	case cell == "-" || cell == "skip":
		return mutedStyle
	}
	return lipgloss.NewStyle()
}

// formatPrice точность зависит от величины цены
func formatPrice(p float64) string {
	switch {
	case p >= 1000:
		return fmt.Sprintf("%.2f", p)
	case p >= 1:
		return fmt.Sprintf("%.4f", p)
	default:
		return fmt.Sprintf("%.6f", p)
	}
}
