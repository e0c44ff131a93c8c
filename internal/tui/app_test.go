package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/christopherklint97/redlog/internal/delivery"
	"github.com/christopherklint97/redlog/internal/redmine"
	"github.com/christopherklint97/redlog/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDay() time.Time { return time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC) }

type switchSender struct {
	offline bool
}

func (s *switchSender) CreateTimeEntry(context.Context, redmine.Target, redmine.TimeEntry) error {
	if s.offline {
		return errors.New("no route to host")
	}
	return nil
}

func newEngine(t *testing.T, sender *switchSender) *delivery.Engine {
	t.Helper()
	kv := store.NewMemoryKV()
	return delivery.New(store.NewSettingsStore(kv, store.Settings{RedmineURL: "https://redmine.example"}), delivery.NewStoredQueue(kv), sender)
}

func TestMonitorShowsQueue(t *testing.T) {
	sender := &switchSender{offline: true}
	engine := newEngine(t, sender)
	entry, err := redmine.NewTimeEntry(5, testDay(), 2, 9, "")
	require.NoError(t, err)
	engine.Submit(context.Background(), entry)

	m := NewMonitor(context.Background(), engine, func() bool { return false })
	model, _ := m.Update(m.loadQueue())
	view := model.View()

	assert.Contains(t, view, "1 queued")
	assert.Contains(t, view, "Issue #5")
	assert.Contains(t, view, "unreachable")
	assert.Contains(t, view, "Offline: request for Issue #5 queued.")
}

func TestMonitorRetryDrains(t *testing.T) {
	sender := &switchSender{offline: true}
	engine := newEngine(t, sender)
	entry, err := redmine.NewTimeEntry(7, testDay(), 1, 9, "")
	require.NoError(t, err)
	engine.Submit(context.Background(), entry)
	sender.offline = false

	m := NewMonitor(context.Background(), engine, nil)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	require.NotNil(t, cmd)

	msg := cmd()
	_, cmd = m.Update(msg)
	require.NotNil(t, cmd)
	m.Update(cmd())

	m.Update(statusMsg(engine.Status().Get()))
	view := m.View()
	assert.Contains(t, view, "Queue is empty.")
	assert.Contains(t, view, "Offline queue cleared.")
}

func TestMonitorIgnoresRetryWhileBusy(t *testing.T) {
	engine := newEngine(t, &switchSender{})
	m := NewMonitor(context.Background(), engine, nil)
	m.Update(busyMsg(true))

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	assert.Nil(t, cmd)
}

func TestMonitorQuit(t *testing.T) {
	m := NewMonitor(context.Background(), newEngine(t, &switchSender{}), nil)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
}

func TestRenderStatusKeepsMessage(t *testing.T) {
	for _, k := range []delivery.StatusKind{delivery.StatusDelivered, delivery.StatusRejected, delivery.StatusQueued, delivery.StatusRetrying, delivery.StatusIdle} {
		out := RenderStatus(delivery.Status{Kind: k, Message: "hello"})
		assert.True(t, strings.Contains(out, "hello"))
	}
}
