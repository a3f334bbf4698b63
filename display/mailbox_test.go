// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package display

import (
	"context"
	"errors"
	"testing"

	"github.com/danielhkuo/pollgate/models"
)

func TestShowPuzzleAndImage(t *testing.T) {
	mb := NewMailbox()
	ctx := context.Background()

	handle, err := mb.ShowPuzzle(ctx, 42, models.PuzzleMessage{
		PuzzleID: "pz",
		Image:    []byte("png"),
		Caption:  "Round 1/3",
		Options:  [4]int{3, 5, 7, 9},
	})
	if err != nil {
		t.Fatal(err)
	}

	screen, ok := mb.Screen(42)
	if !ok {
		t.Fatal("expected a screen")
	}
	if screen.Handle != handle || screen.Kind != KindPuzzle || screen.Text != "Round 1/3" {
		t.Errorf("unexpected screen: %+v", screen)
	}
	if len(screen.Options) != 4 || screen.Options[2] != 7 || screen.Actions[2].Data != "answer:7" {
		t.Errorf("unexpected options: %+v", screen)
	}
	if screen.ImageURL != "/screen/messages/"+string(handle)+".png" {
		t.Errorf("unexpected image url %q", screen.ImageURL)
	}

	img, ok := mb.Image(42, handle)
	if !ok || string(img) != "png" {
		t.Errorf("expected image bytes, got %q", img)
	}

	// Other voters cannot fetch it
	if _, ok := mb.Image(43, handle); ok {
		t.Error("voter 43 should not see voter 42's image")
	}
}

func TestShowPuzzle_RequiresImage(t *testing.T) {
	if _, err := NewMailbox().ShowPuzzle(context.Background(), 1, models.PuzzleMessage{}); err == nil {
		t.Error("expected error without image")
	}
}

func TestRemoveMessage(t *testing.T) {
	mb := NewMailbox()
	ctx := context.Background()

	first, _ := mb.ShowPuzzle(ctx, 42, models.PuzzleMessage{Image: []byte("1")})
	second, _ := mb.ShowPuzzle(ctx, 42, models.PuzzleMessage{Image: []byte("2")})

	// The first message was already replaced
	if err := mb.RemoveMessage(ctx, 42, first); !errors.Is(err, ErrMessageNotFound) {
		t.Errorf("expected ErrMessageNotFound, got %v", err)
	}
	if _, ok := mb.Screen(42); !ok {
		t.Fatal("stale removal must not blank the current message")
	}

	if err := mb.RemoveMessage(ctx, 42, second); err != nil {
		t.Fatalf("RemoveMessage failed: %v", err)
	}
	if _, ok := mb.Screen(42); ok {
		t.Error("expected empty screen")
	}
}

func TestShowResult(t *testing.T) {
	mb := NewMailbox()
	handle, err := mb.ShowResult(context.Background(), 42, "Vote recorded", []models.Action{{Label: "Log", URL: "https://t.me/log"}})
	if err != nil {
		t.Fatal(err)
	}

	screen, _ := mb.Screen(42)
	if screen.Handle != handle || screen.Kind != KindResult || screen.ImageURL != "" {
		t.Errorf("unexpected screen: %+v", screen)
	}
	if _, ok := mb.Image(42, handle); ok {
		t.Error("result messages have no image")
	}
}
