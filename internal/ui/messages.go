package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/olivier-w/presto/internal/app"
	"github.com/olivier-w/presto/internal/engine"
)

const frameRate = 20

type tickMsg time.Time
type engineEventMsg struct{ ev engine.Event }
type eventsClosedMsg struct{}
type requestMsg struct{ req app.Request }

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitForEvent(events <-chan engine.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}
		return engineEventMsg{ev: ev}
	}
}

func waitForRequest(requests <-chan app.Request) tea.Cmd {
	if requests == nil {
		return nil
	}
	return func() tea.Msg {
		r, ok := <-requests
		if !ok {
			return nil
		}
		return requestMsg{req: r}
	}
}
