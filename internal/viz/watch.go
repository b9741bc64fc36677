package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/aethersim/internal/automaton"
	"github.com/san-kum/aethersim/internal/sim"
)

const historyCapacity = 600

// Frame is a copy of everything the watch view shows for one step.
type Frame struct {
	Name    string
	Stats   automaton.Stats
	Elapsed time.Duration
	Rows    [][]int64
}

// NewFrame reads the section of a around the origin.
func NewFrame(a *automaton.Automaton, elapsed time.Duration, radius int) (Frame, error) {
	rows, err := Section(a, radius)
	if err != nil {
		return Frame{}, err
	}
	st, err := a.Stats()
	if err != nil {
		return Frame{}, err
	}
	return Frame{Name: a.Name(), Stats: st, Elapsed: elapsed, Rows: rows}, nil
}

// Frames builds a frame after each step and sends it to ch without
// blocking. No frame is built while ch is full.
func Frames(ch chan Frame, radius int) sim.Observer {
	return sim.ObserverFunc(func(ev sim.StepEvent) error {
		if len(ch) == cap(ch) {
			return nil
		}
		rows, err := Section(ev.Automaton, radius)
		if err != nil {
			return err
		}
		f := Frame{Name: ev.Automaton.Name(), Stats: ev.Stats, Elapsed: ev.Elapsed, Rows: rows}
		select {
		case ch <- f:
		default:
		}
		return nil
	})
}

type frameMsg Frame

type doneMsg struct{}

// Watch is a Bubble Tea model following a run through a frame channel.
// Closing the channel marks the run finished.
type Watch struct {
	frames   <-chan Frame
	maxSteps uint64
	last     Frame
	seen     bool
	toppled  []float64
	done     bool
	theme    Theme
	quitting bool
}

// NewWatch creates the view. maxSteps of zero hides the progress bar. A
// theme without heat colors falls back to the first theme.
func NewWatch(frames <-chan Frame, maxSteps uint64, theme Theme) Watch {
	if len(theme.Heat) == 0 {
		theme = Themes[0]
	}
	return Watch{
		frames:   frames,
		maxSteps: maxSteps,
		toppled:  make([]float64, 0, historyCapacity),
		theme:    theme,
	}
}

func (w Watch) waitFrame() tea.Msg {
	f, ok := <-w.frames
	if !ok {
		return doneMsg{}
	}
	return frameMsg(f)
}

func (w Watch) Init() tea.Cmd {
	return w.waitFrame
}

func (w Watch) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			w.quitting = true
			return w, tea.Quit
		case "t":
			w.theme = nextTheme(w.theme)
		}
	case frameMsg:
		w.last = Frame(msg)
		w.seen = true
		w.toppled = append(w.toppled, float64(msg.Stats.Toppled))
		if len(w.toppled) > historyCapacity {
			w.toppled = w.toppled[1:]
		}
		return w, w.waitFrame
	case doneMsg:
		w.done = true
	}
	return w, nil
}

// Done reports whether the frame channel has been closed.
func (w Watch) Done() bool { return w.done }

func (w Watch) View() string {
	if w.quitting {
		return ""
	}
	var s strings.Builder
	title := "waiting for first step"
	if w.seen {
		title = w.last.Name
	}
	s.WriteString(HeaderStyle.Foreground(w.theme.Primary).Render(title) + "\n")

	status := StatusRunning.Render("RUNNING")
	if w.done {
		status = StatusStable.Render("FINISHED")
	}
	s.WriteString(status + "\n\n")
	if !w.seen {
		return s.String()
	}

	st := w.last.Stats
	var stats strings.Builder
	stats.WriteString(MetricLine("Step", fmt.Sprintf("%d", st.Step)) + "\n")
	stats.WriteString(MetricLine("Max x", fmt.Sprintf("%d", st.MaxX)) + "\n")
	stats.WriteString(MetricLine("Toppled", fmt.Sprintf("%d", st.Toppled)) + "\n")
	stats.WriteString(MetricLine("Excess", fmt.Sprintf("%d", st.Excess)) + "\n")
	stats.WriteString(MetricLine("Range", fmt.Sprintf("%d..%d", st.MinValue, st.MaxValue)) + "\n")
	stats.WriteString(MetricLine("Elapsed", w.last.Elapsed.Round(time.Millisecond).String()))
	if w.maxSteps > 0 {
		stats.WriteString("\n" + ProgressBar(float64(st.Step)/float64(w.maxSteps), 30))
	}
	if len(w.toppled) > 1 {
		chart := asciigraph.Plot(w.toppled, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("toppled"))
		stats.WriteString("\n\n" + lipgloss.NewStyle().Foreground(w.theme.Accent).Render(chart))
	}

	heat := GlassPanel.Render(Heat(w.last.Rows, w.theme))
	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, heat, "  ", stats.String()))
	s.WriteString("\n\n" + KeyHint.Render("t theme • q quit"))
	return s.String()
}
