// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package display

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/pollgate/models"
)

var ErrMessageNotFound = errors.New("message not found")

const (
	KindPuzzle = "puzzle"
	KindResult = "result"
)

type entry struct {
	screen models.Screen
	image  []byte
}

type Mailbox struct {
	mu      sync.Mutex
	screens map[int64]*entry
	now     func() time.Time
}

func NewMailbox() *Mailbox {
	return &Mailbox{screens: make(map[int64]*entry), now: time.Now}
}

// ImagePath is where the image of a puzzle message is served.
func ImagePath(handle models.MessageHandle) string {
	return "/screen/messages/" + string(handle) + ".png"
}

func (m *Mailbox) ShowPuzzle(_ context.Context, voterID int64, msg models.PuzzleMessage) (models.MessageHandle, error) {
	if len(msg.Image) == 0 {
		return "", errors.New("puzzle message has no image")
	}

	handle := models.MessageHandle(uuid.NewString())
	options := make([]int, len(msg.Options))
	actions := make([]models.Action, len(msg.Options))
	for i, v := range msg.Options {
		options[i] = v
		actions[i] = models.Action{Label: strconv.Itoa(v), Data: "answer:" + strconv.Itoa(v)}
	}

	m.set(voterID, &entry{
		screen: models.Screen{
			Handle:   handle,
			Kind:     KindPuzzle,
			Text:     msg.Caption,
			ImageURL: ImagePath(handle),
			Options:  options,
			Actions:  actions,
			ShownAt:  m.now(),
		},
		image: msg.Image,
	})
	return handle, nil
}

func (m *Mailbox) ShowResult(_ context.Context, voterID int64, text string, actions []models.Action) (models.MessageHandle, error) {
	handle := models.MessageHandle(uuid.NewString())
	m.set(voterID, &entry{screen: models.Screen{
		Handle:  handle,
		Kind:    KindResult,
		Text:    text,
		Actions: actions,
		ShownAt: m.now(),
	}})
	return handle, nil
}

// RemoveMessage deletes a message if it is still on screen.
func (m *Mailbox) RemoveMessage(_ context.Context, voterID int64, handle models.MessageHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.screens[voterID]
	if !ok || e.screen.Handle != handle {
		return fmt.Errorf("remove %s: %w", handle, ErrMessageNotFound)
	}
	delete(m.screens, voterID)
	return nil
}

// Screen returns a copy of what the voter currently sees.
func (m *Mailbox) Screen(voterID int64) (models.Screen, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.screens[voterID]
	if !ok {
		return models.Screen{}, false
	}
	s := e.screen
	s.Options = append([]int(nil), e.screen.Options...)
	s.Actions = append([]models.Action(nil), e.screen.Actions...)
	return s, true
}

// Image returns the PNG of a puzzle message the voter is looking at.
func (m *Mailbox) Image(voterID int64, handle models.MessageHandle) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.screens[voterID]
	if !ok || e.screen.Handle != handle || e.image == nil {
		return nil, false
	}
	return e.image, true
}

func (m *Mailbox) set(voterID int64, e *entry) {
	m.mu.Lock()
	m.screens[voterID] = e
	m.mu.Unlock()
}
