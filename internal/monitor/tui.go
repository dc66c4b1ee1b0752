package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/openvcu/someip/internal/server"
	"github.com/openvcu/someip/internal/someip/sd"
)

// Message types for async updates.
type (
	snapshotMsg   []sd.ServiceStatus
	streamMsg     <-chan server.TransitionEvent
	eventMsg      server.TransitionEvent
	streamDoneMsg struct{}
	errMsg        struct{ err error }
)

// watchKeyMap defines key bindings for the watch screen.
type watchKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Refresh key.Binding
	Quit    key.Binding
}

func (k watchKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Refresh, k.Quit}
}

func (k watchKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down}, {k.Refresh, k.Quit}}
}

var watchKeys = watchKeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// Model is the bubbletea model for the live watch dashboard.
type Model struct {
	client *Client
	ctx    context.Context
	events <-chan server.TransitionEvent

	table     table.Model
	spinner   spinner.Model
	help      help.Model
	keys      watchKeyMap
	statuses  []sd.ServiceStatus
	lastEvent string
	connected bool
	err       error
}

// NewModel creates the watch dashboard over a monitoring client.
func NewModel(ctx context.Context, client *Client) Model {
	columns := []table.Column{
		{Title: "Service", Width: 10},
		{Title: "Instance", Width: 10},
		{Title: "State", Width: 18},
		{Title: "Offered", Width: 8},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(PrimaryColor).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(TextColor).
		Background(PrimaryColor)
	t.SetStyles(styles)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(PrimaryColor)

	return Model{
		client:  client,
		ctx:     ctx,
		table:   t,
		spinner: sp,
		help:    help.New(),
		keys:    watchKeys,
	}
}

// Run starts the watch dashboard and blocks until the user quits.
func Run(ctx context.Context, client *Client) error {
	program := tea.NewProgram(NewModel(ctx, client), tea.WithAltScreen())
	_, err := program.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.fetchSnapshot(),
		m.connectStream(),
	)
}

func (m Model) fetchSnapshot() tea.Cmd {
	return func() tea.Msg {
		statuses, err := m.client.FetchServices(m.ctx)
		if err != nil {
			return errMsg{err}
		}
		return snapshotMsg(statuses)
	}
}

func (m Model) connectStream() tea.Cmd {
	return func() tea.Msg {
		events, err := m.client.Stream(m.ctx)
		if err != nil {
			return errMsg{err}
		}
		return streamMsg(events)
	}
}

// waitForEvent reads the next transition from the stream.
func waitForEvent(events <-chan server.TransitionEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return streamDoneMsg{}
		}
		return eventMsg(event)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Refresh):
			return m, m.fetchSnapshot()
		}

	case snapshotMsg:
		m.statuses = msg
		m.err = nil
		m.table.SetRows(m.rows())
		return m, nil

	case streamMsg:
		m.events = msg
		m.connected = true
		return m, waitForEvent(m.events)

	case eventMsg:
		m.lastEvent = fmt.Sprintf("%s 0x%04x/0x%04x %s → %s",
			msg.Timestamp.Format("15:04:05"),
			msg.ServiceID, msg.InstanceID, msg.From, msg.To)
		m.applyEvent(server.TransitionEvent(msg))
		m.table.SetRows(m.rows())
		return m, waitForEvent(m.events)

	case streamDoneMsg:
		m.connected = false
		return m, nil

	case errMsg:
		m.err = msg.err
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// applyEvent folds one transition into the cached snapshot.
func (m *Model) applyEvent(event server.TransitionEvent) {
	for i := range m.statuses {
		if m.statuses[i].ServiceID == event.ServiceID && m.statuses[i].InstanceID == event.InstanceID {
			m.statuses[i].State = event.To
			m.statuses[i].Offered = event.Offered
			return
		}
	}
	m.statuses = append(m.statuses, sd.ServiceStatus{
		ServiceID:  event.ServiceID,
		InstanceID: event.InstanceID,
		State:      event.To,
		Offered:    event.Offered,
	})
}

func (m Model) rows() []table.Row {
	rows := make([]table.Row, 0, len(m.statuses))
	for _, s := range m.statuses {
		offered := "-"
		if s.Offered {
			offered = "yes"
		}
		rows = append(rows, table.Row{
			fmt.Sprintf("0x%04x", s.ServiceID),
			fmt.Sprintf("0x%04x", s.InstanceID),
			stateStyle(s.State).Render(s.State),
			offered,
		})
	}
	return rows
}

func (m Model) View() string {
	title := titleStyle.Render("SOME/IP SD Watch")

	status := m.spinner.View() + " live"
	if !m.connected {
		status = "disconnected (r to refresh)"
	}
	if m.err != nil {
		status = stoppedStyle.Render(m.err.Error())
	}

	view := title + "  " + statusBarStyle.Render(status) + "\n\n" +
		tableBorderStyle.Render(m.table.View()) + "\n"

	if m.lastEvent != "" {
		view += eventStyle.Render("last: "+m.lastEvent) + "\n"
	}
	view += m.help.View(m.keys) + "\n" +
		statusBarStyle.Render(fmt.Sprintf("updated %s", time.Now().Format("15:04:05")))
	return view
}
