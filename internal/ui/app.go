package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Deadolus/tschenggins-laempli/internal/jenkins"
	"github.com/Deadolus/tschenggins-laempli/internal/prefs"
	"github.com/Deadolus/tschenggins-laempli/internal/status"
	"github.com/Deadolus/tschenggins-laempli/internal/wifi"
)

// View represents the current active view.
type View int

const (
	ViewLamp View = iota
	ViewLogs
)

// Options configures the lamp panel.
type Options struct {
	Context context.Context

	// Data sources, read on every tick.
	Registry *jenkins.Registry
	Board    *status.Board
	State    func() wifi.State

	// Static labels.
	BackendHost string
	StationName string
	MaxChannels int

	// LogPath is the lamp's own log file, shown in the log pane.
	LogPath string

	ThemeName string
	PrefsPath string
	Bell      bool

	// Tick is the refresh cadence; zero uses one second.
	Tick time.Duration
}

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx         context.Context
	registry    *jenkins.Registry
	board       *status.Board
	stateFn     func() wifi.State
	backendHost string
	stationName string
	maxChannels int
	logPath     string
	prefsPath   string
	tick        time.Duration

	// UI state
	theme       Theme
	keys        keyMap
	currentView View
	width       int
	height      int
	ready       bool
	showHelp    bool
	bell        bool
	ring        bool // emit a terminal bell with the next render
	frame       int  // animation counter for the running pulse

	// Data state
	jobs        jenkins.Snapshot
	boardSnap   status.Snapshot
	supState    wifi.State
	lastSeq     uint64
	seqPrimed   bool
	lastUpdated time.Time

	// Log state
	logViewport viewport.Model
	logFollow   bool
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	tick := opts.Tick
	if tick == 0 {
		tick = time.Second
	}

	themeName := opts.ThemeName
	if themeName == "" {
		themeName = "Dracula"
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	maxCh := opts.MaxChannels
	if maxCh <= 0 || maxCh > jenkins.MaxChannels {
		maxCh = jenkins.MaxChannels
	}

	return Model{
		ctx:         ctx,
		registry:    opts.Registry,
		board:       opts.Board,
		stateFn:     opts.State,
		backendHost: opts.BackendHost,
		stationName: opts.StationName,
		maxChannels: maxCh,
		logPath:     opts.LogPath,
		prefsPath:   prefsPath,
		tick:        tick,
		theme:       GetTheme(themeName),
		keys:        DefaultKeyMap(),
		currentView: ViewLamp,
		bell:        opts.Bell,
		logFollow:   true,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tickCmd(m.tick),
		m.snapshotCmd(),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.logViewport = viewport.New(msg.Width, m.contentHeight())
			m.ready = true
		} else {
			m.logViewport.Width = msg.Width
			m.logViewport.Height = m.contentHeight()
		}
		return m, nil

	case tickMsg:
		m.frame++
		m.ring = false
		cmds := []tea.Cmd{m.snapshotCmd(), tickCmd(m.tick)}
		if m.currentView == ViewLogs {
			cmds = append(cmds, loadLogCmd(m.logPath))
		}
		return m, tea.Batch(cmds...)

	case snapshotMsg:
		m.jobs = msg.jobs
		m.boardSnap = msg.board
		m.supState = msg.state
		m.lastUpdated = time.Now()
		if m.bell && m.seqPrimed && msg.board.Seq > m.lastSeq {
			m.ring = true
		}
		m.lastSeq = msg.board.Seq
		m.seqPrimed = true
		return m, nil

	case logLinesMsg:
		m.setLogContent([]string(msg))
		return m, nil

	case logErrorMsg:
		// The pane keeps its old content; the error itself ends up in the
		// log file and shows on the next successful read.
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var view string
	switch {
	case m.showHelp:
		view = m.renderHelp()
	case m.currentView == ViewLogs:
		view = m.renderLogs()
	default:
		view = m.renderLamp()
	}

	out := m.renderHeader() + "\n" + view
	if m.ring {
		// The buzzer of the host build is the terminal bell.
		out += "\a"
	}
	return out
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help.
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.savePrefs()
		return m, nil

	case key.Matches(msg, m.keys.ToggleBell):
		m.bell = !m.bell
		m.savePrefs()
		return m, nil

	case key.Matches(msg, m.keys.ViewLogs):
		m.currentView = ViewLogs
		return m, loadLogCmd(m.logPath)

	case key.Matches(msg, m.keys.ViewLamp):
		if m.currentView == ViewLamp {
			m.currentView = ViewLogs
			return m, loadLogCmd(m.logPath)
		}
		m.currentView = ViewLamp
		return m, nil

	case key.Matches(msg, m.keys.Escape):
		m.currentView = ViewLamp
		return m, nil
	}

	if m.currentView == ViewLogs {
		return m.handleLogsKey(msg)
	}
	return m, nil
}

func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	_ = prefs.Save(m.prefsPath, prefs.Prefs{Theme: m.theme.Name, Bell: m.bell})
}

// contentHeight is the vertical space below the two header lines.
func (m Model) contentHeight() int {
	h := m.height - 2
	if h < 1 {
		h = 1
	}
	return h
}

// Messages

type tickMsg time.Time

type snapshotMsg struct {
	jobs  jenkins.Snapshot
	board status.Snapshot
	state wifi.State
}

type logLinesMsg []string

type logErrorMsg struct{ err error }

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) snapshotCmd() tea.Cmd {
	registry, board, stateFn := m.registry, m.board, m.stateFn
	return func() tea.Msg {
		var msg snapshotMsg
		if registry != nil {
			msg.jobs = registry.Snapshot()
		}
		if board != nil {
			msg.board = board.Snapshot()
		}
		if stateFn != nil {
			msg.state = stateFn()
		}
		return msg
	}
}

// renderMain joins content lines, truncated to the window height.
func (m Model) clampLines(content string) string {
	lines := strings.Split(content, "\n")
	if len(lines) > m.contentHeight() {
		lines = lines[:m.contentHeight()]
	}
	return strings.Join(lines, "\n")
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	return err
}
