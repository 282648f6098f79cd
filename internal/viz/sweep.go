package viz

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/hydrorig/internal/dynamo"
)

// JobDoneMsg reports one finished ensemble job.
type JobDoneMsg dynamo.JobResult

type sweepDoneMsg struct{}

type tickMsg time.Time

// SweepModel follows an ensemble run job by job.
type SweepModel struct {
	title   string
	total   int
	results []dynamo.JobResult
	frame   int
	done    bool
}

func NewSweepModel(title string, total int) SweepModel {
	return SweepModel{title: title, total: total}
}

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m SweepModel) Init() tea.Cmd { return tick() }

func (m SweepModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
	case JobDoneMsg:
		m.results = append(m.results, dynamo.JobResult(msg))
	case sweepDoneMsg:
		m.done = true
		return m, tea.Quit
	case tickMsg:
		m.frame++
		if !m.done {
			return m, tick()
		}
	}
	return m, nil
}

// Finished counts the jobs reported so far.
func (m SweepModel) Finished() int { return len(m.results) }

func (m SweepModel) View() string {
	var sb strings.Builder

	sb.WriteString(Title.Render(m.title))
	sb.WriteString("\n")

	finished := m.Finished()
	pct := 0.0
	if m.total > 0 {
		pct = float64(finished) / float64(m.total)
	}
	status := AnimatedSpinner(m.frame)
	if m.done {
		status = StatusOK.Render("✓")
	}
	sb.WriteString(fmt.Sprintf("%s %s %d/%d\n", status, ProgressBar(pct, 30), finished, m.total))

	for _, r := range m.results {
		mark := StatusOK.Render("ok  ")
		detail := ""
		if r.Err != nil {
			mark = StatusFail.Render("fail")
			detail = r.Err.Error()
		} else if r.Trace != nil && len(r.Trace.Warnings) > 0 {
			mark = StatusWarn.Render("warn")
		}
		sb.WriteString(fmt.Sprintf("%s %-24s %s %s\n",
			mark, r.Name, Subtle.Render(r.Elapsed.Round(time.Millisecond).String()), detail))
	}
	return sb.String()
}

// RunSweep runs jobs on the ensemble pool while a SweepModel renders their
// progress to out. Quitting the view cancels the remaining jobs.
func RunSweep(ctx context.Context, title string, jobs []dynamo.Job, workers int, out io.Writer) ([]dynamo.JobResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewSweepModel(title, len(jobs)),
		tea.WithOutput(out), tea.WithInput(nil), tea.WithoutSignalHandler())

	var results []dynamo.JobResult
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		results = dynamo.RunEnsemble(ctx, jobs, workers, func(r dynamo.JobResult) {
			p.Send(JobDoneMsg(r))
		})
		p.Send(sweepDoneMsg{})
	}()

	_, err := p.Run()
	cancel()
	<-finished
	return results, err
}
