package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mrsinham/dicomtree/internal/scan"
)

// ProgressMsg reports how many candidate files were considered so far.
type ProgressMsg struct {
	Current int
	Total   int
}

// doneMsg carries the result of the scan goroutine.
type doneMsg struct {
	outcome scan.Outcome
	err     error
}

var (
	progressBarStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("63"))

	progressBarEmptyStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240"))

	progressPercentStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("63")).
				Bold(true)

	progressFileStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("244"))

	cancelHintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

// ScanModel shows the progress of one scan. Ctrl+C cancels the scan
// context; the model keeps running until the scan reports back.
type ScanModel struct {
	root       string
	current    int
	total      int
	startTime  time.Time
	cancel     context.CancelFunc
	cancelling bool
	done       bool
	outcome    scan.Outcome
	err        error
	width      int
}

// NewScanModel creates the progress model for a scan of root. cancel is
// called when the user presses ctrl+c.
func NewScanModel(root string, cancel context.CancelFunc) *ScanModel {
	return &ScanModel{root: root, cancel: cancel, startTime: time.Now()}
}

// Init implements tea.Model
func (m *ScanModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m *ScanModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			if !m.cancelling {
				m.cancelling = true
				m.cancel()
			}
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case ProgressMsg:
		m.current = msg.Current
		m.total = msg.Total
	case doneMsg:
		m.done = true
		m.outcome = msg.outcome
		m.err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

// View implements tea.Model
func (m *ScanModel) View() string {
	if m.done {
		return ""
	}

	var percent float64
	if m.total > 0 {
		percent = float64(m.current) / float64(m.total) * 100
	}

	barWidth := 40
	if m.width > 60 {
		barWidth = min(m.width/2, 60)
	}

	var sb strings.Builder
	sb.WriteString(TitleStyle.Render("Scanning " + m.root))
	sb.WriteString("\n\n")
	sb.WriteString(renderProgressBar(percent, barWidth))
	sb.WriteString(" ")
	sb.WriteString(progressPercentStyle.Render(fmt.Sprintf("%d%%", int(percent))))
	sb.WriteString("\n\n")
	sb.WriteString(progressFileStyle.Render(fmt.Sprintf("File %d/%d", m.current, m.total)))
	sb.WriteString("\n")
	sb.WriteString(progressFileStyle.Render(fmt.Sprintf("Elapsed: %.1fs", time.Since(m.startTime).Seconds())))
	sb.WriteString("\n\n")
	if m.cancelling {
		sb.WriteString(cancelHintStyle.Render("Cancelling..."))
	} else {
		sb.WriteString(cancelHintStyle.Render("Press Ctrl+C to cancel"))
	}
	return sb.String()
}

func renderProgressBar(percent float64, width int) string {
	filled := min(int(percent/100*float64(width)), width)
	bar := progressBarStyle.Render("[" + strings.Repeat("█", filled))
	bar += progressBarEmptyStyle.Render(strings.Repeat("░", width-filled) + "]")
	return bar
}

// Cancelled reports whether the user asked to cancel.
func (m *ScanModel) Cancelled() bool {
	return m.cancelling
}

// ScanFunc runs a scan, reporting progress through the given function.
type ScanFunc func(ctx context.Context, progress scan.ProgressFunc) (scan.Outcome, error)

// RunScan runs fn while showing the progress screen. Options are passed to
// tea.NewProgram, e.g. to redirect input and output in tests.
func RunScan(ctx context.Context, root string, fn ScanFunc, opts ...tea.ProgramOption) (scan.Outcome, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := NewScanModel(root, cancel)
	p := tea.NewProgram(model, opts...)

	go func() {
		out, err := fn(ctx, func(current, total int) {
			p.Send(ProgressMsg{Current: current, Total: total})
		})
		p.Send(doneMsg{outcome: out, err: err})
	}()

	if _, err := p.Run(); err != nil {
		return scan.Outcome{}, fmt.Errorf("run progress screen: %w", err)
	}
	return model.outcome, model.err
}
