// ABOUTME: Live notification view for the watch command
// ABOUTME: Bubbletea model that streams broker notifications under a spinner
package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/harperreed/shadecal/models"
	"github.com/harperreed/shadecal/notify"
)

const watchHistory = 8

// notificationMsg carries one decoded notification into the view.
type notificationMsg struct {
	note models.Notification
}

// streamClosedMsg is sent when the broker stops delivering.
type streamClosedMsg struct{}

type watchModel struct {
	bodies <-chan []byte
	user   string
	loc    *time.Location
	logger *log.Logger

	spinner  spinner.Model
	recent   []models.Notification
	received int
	closed   bool
}

func newWatchModel(bodies <-chan []byte, user string, loc *time.Location, logger *log.Logger) watchModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = busyStyle

	return watchModel{
		bodies:  bodies,
		user:    user,
		loc:     loc,
		logger:  logger,
		spinner: s,
	}
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForNotification())
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
		return m, nil

	case notificationMsg:
		m.received++
		m.recent = append([]models.Notification{msg.note}, m.recent...)
		if len(m.recent) > watchHistory {
			m.recent = m.recent[:watchHistory]
		}
		return m, m.waitForNotification()

	case streamClosedMsg:
		m.closed = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m watchModel) View() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("Calendar Notifications"))
	s.WriteString("\n\n")

	switch {
	case m.closed:
		s.WriteString(errorStyle.Render("✗ Broker closed the stream"))
	default:
		s.WriteString(m.spinner.View())
		s.WriteString(" Waiting for notifications")
		if m.user != "" {
			s.WriteString(hintStyle.Render(" for " + m.user))
		}
	}
	s.WriteString(hintStyle.Render(fmt.Sprintf(" • %d received", m.received)))
	s.WriteString("\n\n")

	if len(m.recent) == 0 {
		s.WriteString(hintStyle.Render("  Nothing yet"))
		s.WriteString("\n")
	}
	for _, n := range m.recent {
		s.WriteString(renderNotification(n, m.loc))
	}

	s.WriteString("\n")
	s.WriteString(hintStyle.Render("q: Quit"))
	s.WriteString("\n")
	return s.String()
}

// waitForNotification blocks on the broker until a notification for the
// watched user arrives or the stream closes.
func (m watchModel) waitForNotification() tea.Cmd {
	return func() tea.Msg {
		n, ok := nextNotification(m.bodies, m.user, m.logger)
		if !ok {
			return streamClosedMsg{}
		}
		return notificationMsg{note: n}
	}
}

// nextNotification reads bodies until one decodes and matches user. An
// empty user matches everyone. It reports false once bodies is closed.
func nextNotification(bodies <-chan []byte, user string, logger *log.Logger) (models.Notification, bool) {
	for body := range bodies {
		n, err := notify.Decode(body)
		if err != nil {
			logger.Warn("skipping malformed notification", "err", err)
			continue
		}
		if user != "" && n.UserID != user {
			continue
		}
		return n, true
	}
	return models.Notification{}, false
}

func renderNotification(n models.Notification, loc *time.Location) string {
	var s strings.Builder

	title := titleStyle.Render(n.Title)
	if n.Type == models.NotificationWarning || n.Priority == models.PriorityHigh {
		title = errorStyle.Render(n.Title)
	}
	fmt.Fprintf(&s, "%s %s\n", hintStyle.Render(n.CreatedAt.In(loc).Format("15:04")), title)
	if n.Message != "" {
		fmt.Fprintf(&s, "  %s\n", n.Message)
	}
	if n.ActionURL != "" {
		fmt.Fprintf(&s, "  %s\n", hintStyle.Render(n.ActionURL))
	}
	return s.String()
}
