package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/olivier-w/presto/internal/app"
	"github.com/olivier-w/presto/internal/catalog"
	"github.com/olivier-w/presto/internal/engine"
	"github.com/olivier-w/presto/internal/util"
)

// Commander accepts engine commands in order. *engine.Engine satisfies it.
type Commander interface {
	Send(engine.Command) error
}

// Options wires the model to the rest of the player.
type Options struct {
	State    *app.State
	Engine   Commander
	Events   <-chan engine.Event
	Requests <-chan app.Request // control bridge requests, may be nil
	Status   StatusLine
	Header   string
}

// Model is the Bubbletea model for the presto TUI.
type Model struct {
	state    *app.State
	engine   Commander
	events   <-chan engine.Event
	requests <-chan app.Request
	status   StatusLine
	header   string

	keys     keyMap
	input    textinput.Model
	progress progressBar
	pending  string // first key of a gg or zz chord
	showMeta bool
	width    int
	height   int
	quitting bool
}

// New creates a Model. Call State.Start and send its commands before
// running the program.
func New(opts Options) Model {
	ti := textinput.New()
	ti.Prompt = "/"
	ti.Placeholder = "filter"
	ti.CharLimit = 256

	return Model{
		state:    opts.State,
		engine:   opts.Engine,
		events:   opts.Events,
		requests: opts.Requests,
		status:   opts.Status,
		header:   opts.Header,
		keys:     defaultKeys(),
		input:    ti,
		progress: newProgressBar(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		waitForEvent(m.events),
		waitForRequest(m.requests),
		tickCmd(),
		tea.SetWindowTitle("presto"),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return m.handleMsg(msg)
}

func (m Model) handleMsg(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case engineEventMsg:
		prev := m.state.NowPlaying()
		m.state.HandleEvent(msg.ev)
		cmds := []tea.Cmd{waitForEvent(m.events)}
		switch msg.ev.(type) {
		case engine.TrackChanged, engine.StateChanged:
			if m.state.NowPlaying() != prev {
				m.progress.reset(0)
			}
			cmds = append(cmds, tea.SetWindowTitle(m.windowTitle()))
		}
		return m, tea.Batch(cmds...)

	case eventsClosedMsg:
		// The engine has stopped; after a quit fade this is the way out.
		m.quitting = true
		return m, tea.Sequence(tea.SetWindowTitle(""), tea.Quit)

	case requestMsg:
		next, cmd := m.dispatch(m.state.Control(msg.req))
		return next, tea.Batch(cmd, waitForRequest(m.requests))

	case tickMsg:
		m.progress.step(m.ratio())
		return m, tickCmd()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(msg.Width-6, 10)
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ForceQuit) {
		if m.quitting {
			return m, tea.Quit
		}
		return m.quit()
	}
	if m.state.Filtering() {
		return m.handleFilterKey(msg)
	}

	s := m.state
	chord := m.pending
	m.pending = ""

	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.quitting {
			return m, tea.Quit
		}
		return m.quit()
	case key.Matches(msg, m.keys.Top):
		if chord == "g" {
			s.Top()
		} else {
			m.pending = "g"
		}
	case key.Matches(msg, m.keys.Recenter):
		if chord == "z" {
			s.Recenter()
		} else {
			m.pending = "z"
		}
	case key.Matches(msg, m.keys.Down):
		s.Down()
	case key.Matches(msg, m.keys.Up):
		s.Up()
	case key.Matches(msg, m.keys.Bottom):
		s.Bottom()
	case key.Matches(msg, m.keys.Play):
		return m.dispatch(s.PlaySelected())
	case key.Matches(msg, m.keys.PlayPause):
		return m.dispatch(s.Control(app.Request{Kind: app.RequestPlayPause}))
	case key.Matches(msg, m.keys.Next):
		return m.dispatch(s.Control(app.Request{Kind: app.RequestNext}))
	case key.Matches(msg, m.keys.Prev):
		return m.dispatch(s.Control(app.Request{Kind: app.RequestPrev}))
	case key.Matches(msg, m.keys.ScrubForward):
		return m.dispatch(s.ScrubForward())
	case key.Matches(msg, m.keys.ScrubBack):
		return m.dispatch(s.ScrubBack())
	case key.Matches(msg, m.keys.Shuffle):
		return m.dispatch(s.ToggleShuffle())
	case key.Matches(msg, m.keys.Loop):
		return m.dispatch(s.CycleLoop())
	case key.Matches(msg, m.keys.Filter):
		s.EnterFilter()
		m.input.SetValue(s.Query())
		m.input.CursorEnd()
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.Meta):
		m.showMeta = !m.showMeta
	case key.Matches(msg, m.keys.Clear):
		if m.showMeta {
			m.showMeta = false
			return m, nil
		}
		if s.Query() != "" {
			m.input.Reset()
			return m.dispatch(s.ClearFilter())
		}
	}
	return m, nil
}

func (m Model) handleFilterKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	s := m.state
	switch {
	case key.Matches(msg, m.keys.Clear):
		m.input.Reset()
		m.input.Blur()
		return m.dispatch(s.ClearFilter())
	case key.Matches(msg, m.keys.Accept):
		next, cmd := m.dispatch(s.AcceptFilter())
		if !s.Filtering() {
			next.input.Blur()
		}
		return next, cmd
	case key.Matches(msg, m.keys.FilterDown):
		s.FilterDown()
		return m, nil
	case key.Matches(msg, m.keys.FilterUp):
		s.FilterUp()
		return m, nil
	}

	var inputCmd tea.Cmd
	m.input, inputCmd = m.input.Update(msg)
	next, sendCmd := m.dispatch(s.SetQuery(m.input.Value()))
	return next, tea.Batch(inputCmd, sendCmd)
}

func (m Model) quit() (Model, tea.Cmd) {
	m.quitting = true
	next, cmd := m.dispatch(m.state.Control(app.Request{Kind: app.RequestQuit}))
	next.quitting = true
	return next, cmd
}

// dispatch sends cmds to the engine in order. Sends happen here, not in a
// tea.Cmd, so the engine sees them in key-press order.
func (m Model) dispatch(cmds []engine.Command) (Model, tea.Cmd) {
	for _, c := range cmds {
		if err := m.engine.Send(c); err != nil {
			if errors.Is(err, engine.ErrShuttingDown) && m.quitting {
				return m, tea.Sequence(tea.SetWindowTitle(""), tea.Quit)
			}
			m.state.HandleEvent(engine.ErrorEvent{Err: err, Command: c})
			return m, nil
		}
	}
	return m, nil
}

func (m Model) ratio() float64 {
	total := m.state.Duration()
	if total <= 0 {
		return 0
	}
	return m.state.Elapsed().Seconds() / total.Seconds()
}

func (m Model) nowPlaying() (catalog.Track, bool) {
	return m.state.Catalog().Track(m.state.NowPlaying())
}

func (m Model) windowTitle() string {
	t, ok := m.nowPlaying()
	if !ok {
		return "presto"
	}
	title := m.status.Track(t)
	if m.state.Status() == engine.Paused {
		return "⏸ " + title + " - presto"
	}
	return "▶ " + title + " - presto"
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	w := m.width
	if w < 30 {
		w = 60
	}

	var top strings.Builder
	top.WriteString("\n")
	top.WriteString("  " + headerStyle.Render(m.header) + "\n")
	top.WriteString("\n")

	var bottom strings.Builder
	bottom.WriteString("\n")
	bottom.WriteString(m.nowPlayingView(w))
	if filter := m.filterView(); filter != "" {
		bottom.WriteString("  " + filter + "\n")
	}
	if msg := m.state.Message(); msg != "" {
		bottom.WriteString("  " + messageStyle.Render(msg) + "\n")
	}
	bottom.WriteString("\n")
	help := m.keys.browseHelp()
	if m.state.Filtering() {
		help = m.keys.filterHelp()
	}
	bottom.WriteString("  " + helpStyle.Render(helpText(help)) + "\n")

	bodyHeight := 10
	if m.height > 0 {
		bodyHeight = max(m.height-lipgloss.Height(top.String())-lipgloss.Height(bottom.String()), 1)
	}

	var body string
	if m.showMeta {
		body = m.metaView()
	} else {
		body = m.listView(w, bodyHeight)
	}

	view := top.String() + body + bottom.String()
	if pad := m.height - lipgloss.Height(view); pad > 0 {
		view = top.String() + body + strings.Repeat("\n", pad) + bottom.String()
	}
	return view
}

func (m Model) listView(width, height int) string {
	rows := m.state.Rows()
	if len(rows) == 0 {
		if m.state.Query() != "" {
			return "  " + helpStyle.Render("no matches") + "\n"
		}
		return "  " + helpStyle.Render("no tracks") + "\n"
	}

	cursor := m.state.Cursor()
	start := 0
	if len(rows) > height {
		start = min(max(cursor-height/2, 0), len(rows)-height)
	}
	end := min(start+height, len(rows))

	displays := m.state.Catalog().Displays()
	playing := m.state.NowPlaying()
	line := lipgloss.NewStyle().MaxWidth(width)

	var b strings.Builder
	for i := start; i < end; i++ {
		row := rows[i]
		base := rowStyle
		marker := "  "
		if row.ID == playing {
			base = playingStyle
			marker = "♪ "
		}
		prefix := "  "
		if i == cursor {
			prefix = "> "
			if row.ID == playing {
				base = base.Bold(true)
			} else {
				base = selectedStyle
			}
		}
		text := lipgloss.StyleRunes(displays[row.ID], row.Matched, matchStyle.Inherit(base), base)
		b.WriteString(line.Render(prefix+marker+text) + "\n")
	}
	return b.String()
}

func (m Model) nowPlayingView(width int) string {
	s := m.state
	var b strings.Builder

	track := "nothing playing"
	if t, ok := m.nowPlaying(); ok {
		track = m.status.Track(t)
	}
	b.WriteString("  " + titleStyle.Render(track) + "\n")

	clock := m.status.Time(s.Elapsed(), s.Duration())
	barWidth := max(width-lipgloss.Width(clock)-6, 10)
	b.WriteString("  " + m.progress.view(barWidth) + " " + timeStyle.Render(clock) + "\n")

	left := statusIcon(s.Status()) + "  " + s.Status().String()
	for _, icon := range []string{loopIcon(s.Loop()), shuffleIcon(s.Shuffle())} {
		if icon != "" {
			left += "  " + icon
		}
	}
	right := ""
	if s.Following() {
		right = "follow"
	}
	gap := max(width-lipgloss.Width(left)-lipgloss.Width(right)-4, 2)
	b.WriteString("  " + statusStyle.Render(left+strings.Repeat(" ", gap)+right) + "\n")
	return b.String()
}

func (m Model) filterView() string {
	if m.state.Filtering() {
		return m.input.View()
	}
	if q := m.state.Query(); q != "" {
		return helpStyle.Render(fmt.Sprintf("filter: %s  (%d matches)", q, len(m.state.Rows())))
	}
	return ""
}

func (m Model) metaView() string {
	id, ok := m.state.Selected()
	if !ok {
		return "  " + helpStyle.Render("no track selected") + "\n"
	}
	t, _ := m.state.Catalog().Track(id)
	duration := "unknown"
	if t.HasDuration() {
		duration = util.FormatDuration(t.Duration)
	}
	fields := []struct{ label, value string }{
		{"Title", t.Title},
		{"Artist", t.Artist},
		{"Album", t.Album},
		{"Duration", duration},
		{"Path", t.Path},
	}

	var b strings.Builder
	for _, f := range fields {
		value := f.value
		if value == "" {
			value = "-"
		}
		b.WriteString("  " + labelStyle.Render(f.label) + rowStyle.Render(value) + "\n")
	}
	return b.String()
}
