package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/jobscout/internal/model"
	"github.com/amishk599/jobscout/internal/pipeline"
)

// ErrCancelled is returned when the user interrupts the loader.
var ErrCancelled = errors.New("cancelled")

// RunFunc runs the pipeline once, reporting stage transitions to onStage.
type RunFunc func(ctx context.Context, onStage func(model.Stage)) (pipeline.Result, error)

var (
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("33"))
	stageStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

type runDoneMsg struct {
	result pipeline.Result
	err    error
}

type stageMsg model.Stage

type loaderModel struct {
	spinner spinner.Model
	stages  chan model.Stage
	run     RunFunc
	ctx     context.Context
	cancel  context.CancelFunc
	sources int
	stage   model.Stage
	result  pipeline.Result
	err     error
	done    bool
	// set on Ctrl+C; the loader stays up until the run returns
	cancelling bool
}

func newLoaderModel(ctx context.Context, sources int, run RunFunc) loaderModel {
	ctx, cancel := context.WithCancel(ctx)
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle
	return loaderModel{
		spinner: s,
		stages:  make(chan model.Stage, 16),
		run:     run,
		ctx:     ctx,
		cancel:  cancel,
		sources: sources,
		stage:   model.StageIdle,
	}
}

func (m loaderModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.doRun(), m.waitForStage())
}

func (m loaderModel) doRun() tea.Cmd {
	run, ctx, stages := m.run, m.ctx, m.stages
	return func() tea.Msg {
		res, err := run(ctx, func(s model.Stage) {
			select {
			case stages <- s:
			default:
			}
		})
		return runDoneMsg{result: res, err: err}
	}
}

func (m loaderModel) waitForStage() tea.Cmd {
	stages, ctx := m.stages, m.ctx
	return func() tea.Msg {
		select {
		case s := <-stages:
			return stageMsg(s)
		case <-ctx.Done():
			return nil
		}
	}
}

func (m loaderModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case runDoneMsg:
		m.result = msg.result
		m.err = msg.err
		if m.cancelling {
			m.err = ErrCancelled
		}
		m.done = true
		m.cancel()
		return m, tea.Quit
	case stageMsg:
		m.stage = model.Stage(msg)
		return m, m.waitForStage()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.cancel()
			m.cancelling = true
			return m, nil
		}
	}
	return m, nil
}

func (m loaderModel) View() string {
	if m.done {
		return ""
	}
	if m.cancelling {
		return fmt.Sprintf("%s %s\n", m.spinner.View(), stageStyle.Render("Cancelling..."))
	}
	return fmt.Sprintf("%s %s\n", m.spinner.View(), stageStyle.Render(stageLabel(m.stage, m.sources)))
}

func stageLabel(s model.Stage, sources int) string {
	switch s {
	case model.StageFetching:
		return fmt.Sprintf("Scraping %d job boards...", sources)
	case model.StageNormalizing:
		return "Normalizing postings..."
	case model.StageDebugWriting:
		return "Writing debug CSV..."
	case model.StageRefining:
		return "Waiting for the language model..."
	case model.StageDone, model.StageFailed:
		return "Finishing..."
	default:
		return "Starting..."
	}
}

// RunLoader shows a spinner with the current stage while run executes. It
// renders inline (no alt screen).
func RunLoader(ctx context.Context, sources int, run RunFunc) (pipeline.Result, error) {
	p := tea.NewProgram(newLoaderModel(ctx, sources, run))
	final, err := p.Run()
	if err != nil {
		return pipeline.Result{}, err
	}
	m := final.(loaderModel)
	return m.result, m.err
}
