// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"testing"

	"github.com/danielhkuo/pollgate/display"
	"github.com/danielhkuo/pollgate/models"
	"github.com/danielhkuo/pollgate/testutil"
)

func TestVoteFlow(t *testing.T) {
	env := newTestEnv(t, 3)
	pollID, _ := testutil.CreateTestPoll(t, env.db, 1, "Lunch?", "Pizza", "Sushi")
	const voter = 42

	w, out := env.begin(t, voter, pollID, 1)
	testutil.AssertStatus(t, w, http.StatusOK)
	if out.Status != models.StatusChallengeIssued || out.Round != 1 || out.Rounds != 3 {
		t.Fatalf("Unexpected begin outcome: %+v", out)
	}
	if out.Screen == nil || out.Screen.Kind != display.KindPuzzle {
		t.Fatalf("Expected puzzle on screen, got %+v", out.Screen)
	}
	if out.Screen.ImageURL != display.ImagePath(out.Screen.Handle) {
		t.Errorf("Unexpected image URL %s", out.Screen.ImageURL)
	}

	w, out = env.answer(t, voter, testAnswer+1)
	testutil.AssertStatus(t, w, http.StatusOK)
	if out.Status != models.StatusIncorrectAnswer || out.Round != 1 {
		t.Fatalf("Expected incorrect_answer in round 1, got %+v", out)
	}

	for round := 2; round <= 3; round++ {
		_, out = env.answer(t, voter, testAnswer)
		if out.Status != models.StatusNextRound || out.Round != round {
			t.Fatalf("Expected next_round %d, got %+v", round, out)
		}
	}

	w, out = env.answer(t, voter, testAnswer)
	testutil.AssertStatus(t, w, http.StatusOK)
	if out.Status != models.StatusAccepted {
		t.Fatalf("Expected accepted, got %+v", out)
	}
	if out.Result == nil || out.Result.SequenceNumber != 1 || out.Result.Tally[1] != 1 {
		t.Errorf("Unexpected result: %+v", out.Result)
	}
	if out.Screen == nil || out.Screen.Kind != display.KindResult {
		t.Errorf("Expected result on screen, got %+v", out.Screen)
	}
	if env.sessions.Len() != 0 {
		t.Errorf("Expected session cleared, %d left", env.sessions.Len())
	}

	w, out = env.begin(t, voter, pollID, 0)
	testutil.AssertStatus(t, w, http.StatusConflict)
	if out.Status != models.StatusAlreadyVoted {
		t.Errorf("Expected already_voted, got %s", out.Status)
	}

	var votes int
	env.db.QueryRow("SELECT COUNT(*) FROM votes WHERE poll_id = ?", pollID).Scan(&votes)
	if votes != 1 {
		t.Errorf("Expected 1 vote, got %d", votes)
	}
}

func TestBeginVote_Rejections(t *testing.T) {
	env := newTestEnv(t, 3)
	active, _ := testutil.CreateTestPoll(t, env.db, 1, "Open?", "A", "B")
	closed, _ := testutil.CreateTestPoll(t, env.db, 1, "Closed?", "A", "B")
	testutil.DeactivateTestPoll(t, env.db, closed)

	testCases := []struct {
		name   string
		pollID string
		option int
		status int
		want   string
	}{
		{"unknown poll", "missing", 0, http.StatusNotFound, models.StatusPollNotFound},
		{"inactive poll", closed, 0, http.StatusGone, models.StatusPollInactive},
		{"option too high", active, 2, http.StatusBadRequest, models.StatusInvalidOption},
		{"negative option", active, -1, http.StatusBadRequest, models.StatusInvalidOption},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w, out := env.begin(t, 5, tc.pollID, tc.option)
			testutil.AssertStatus(t, w, tc.status)
			if out.Status != tc.want {
				t.Errorf("Expected %s, got %s", tc.want, out.Status)
			}
			if out.Screen != nil {
				t.Error("Expected nothing on screen")
			}
		})
	}
}

func TestVoteEndpoints_RequireVoter(t *testing.T) {
	env := newTestEnv(t, 3)

	testCases := []struct {
		name    string
		pattern string
		handler http.HandlerFunc
		method  string
		path    string
		body    any
	}{
		{"begin", "POST /polls/{id}/votes", env.votes.BeginVote, "POST", "/polls/x/votes", models.BeginVoteRequest{}},
		{"answer", "POST /challenge/answer", env.votes.SubmitAnswer, "POST", "/challenge/answer", models.SubmitAnswerRequest{Value: 1}},
		{"cancel", "DELETE /challenge", env.votes.Cancel, "DELETE", "/challenge", nil},
		{"text", "POST /messages", env.votes.SendText, "POST", "/messages", models.TextMessageRequest{Text: "hi"}},
		{"screen", "GET /screen", env.screen.GetScreen, "GET", "/screen", nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := serve(tc.pattern, tc.handler, testutil.MakeRequest(tc.method, tc.path, tc.body, nil))
			testutil.AssertStatus(t, w, http.StatusBadRequest)
		})
	}
}

func TestSubmitAnswer_NoChallenge(t *testing.T) {
	env := newTestEnv(t, 3)

	w, out := env.answer(t, 42, testAnswer)
	testutil.AssertStatus(t, w, http.StatusConflict)
	if out.Status != models.StatusNoActiveChallenge {
		t.Errorf("Expected no_active_challenge, got %s", out.Status)
	}
}

func TestSubmitAnswer_PollClosedMidway(t *testing.T) {
	env := newTestEnv(t, 3)
	pollID, _ := testutil.CreateTestPoll(t, env.db, 1, "Lunch?", "Pizza", "Sushi")

	env.begin(t, 42, pollID, 0)
	testutil.DeactivateTestPoll(t, env.db, pollID)

	w, out := env.answer(t, 42, testAnswer)
	testutil.AssertStatus(t, w, http.StatusGone)
	if out.Status != models.StatusPollInactive {
		t.Errorf("Expected poll_inactive, got %s", out.Status)
	}
	if env.sessions.Len() != 0 {
		t.Error("Expected session cleared")
	}
	if _, ok := env.mailbox.Screen(42); ok {
		t.Error("Expected puzzle removed from screen")
	}
}

func TestSendText(t *testing.T) {
	env := newTestEnv(t, 3)
	pollID, _ := testutil.CreateTestPoll(t, env.db, 1, "Lunch?", "Pizza", "Sushi")

	send := func() (int, models.Outcome) {
		req := testutil.MakeRequest("POST", "/messages", models.TextMessageRequest{Text: "7"}, testutil.VoterHeaders(42))
		w := serve("POST /messages", env.votes.SendText, req)
		var out models.Outcome
		testutil.AssertJSON(t, w, &out)
		return w.Code, out
	}

	if code, out := send(); code != http.StatusOK || out.Status != models.StatusIdle {
		t.Errorf("Expected idle 200, got %s %d", out.Status, code)
	}

	env.begin(t, 42, pollID, 0)

	code, out := send()
	if code != http.StatusConflict || out.Status != models.StatusFinishChallengeFirst {
		t.Errorf("Expected finish_challenge_first 409, got %s %d", out.Status, code)
	}
	if out.Screen == nil || out.Screen.Kind != display.KindPuzzle {
		t.Error("Expected the puzzle to stay on screen")
	}
}

func TestCancel(t *testing.T) {
	env := newTestEnv(t, 3)
	pollID, _ := testutil.CreateTestPoll(t, env.db, 1, "Lunch?", "Pizza", "Sushi")

	cancel := func() (int, models.Outcome) {
		req := testutil.MakeRequest("DELETE", "/challenge", nil, testutil.VoterHeaders(42))
		w := serve("DELETE /challenge", env.votes.Cancel, req)
		var out models.Outcome
		testutil.AssertJSON(t, w, &out)
		return w.Code, out
	}

	if code, out := cancel(); code != http.StatusConflict || out.Status != models.StatusNoActiveChallenge {
		t.Errorf("Expected no_active_challenge 409, got %s %d", out.Status, code)
	}

	env.begin(t, 42, pollID, 0)

	code, out := cancel()
	if code != http.StatusOK || out.Status != models.StatusCancelled {
		t.Errorf("Expected cancelled 200, got %s %d", out.Status, code)
	}
	if out.Screen != nil {
		t.Error("Expected screen cleared after cancel")
	}

	// The voter can start over
	if _, out := env.begin(t, 42, pollID, 1); out.Status != models.StatusChallengeIssued {
		t.Errorf("Expected a fresh challenge, got %s", out.Status)
	}
}

func TestOutcomeStatus(t *testing.T) {
	testCases := []struct {
		status string
		code   int
	}{
		{models.StatusChallengeIssued, http.StatusOK},
		{models.StatusIncorrectAnswer, http.StatusOK},
		{models.StatusNextRound, http.StatusOK},
		{models.StatusAccepted, http.StatusOK},
		{models.StatusCancelled, http.StatusOK},
		{models.StatusIdle, http.StatusOK},
		{models.StatusPollNotFound, http.StatusNotFound},
		{models.StatusPollInactive, http.StatusGone},
		{models.StatusInvalidOption, http.StatusBadRequest},
		{models.StatusAlreadyVoted, http.StatusConflict},
		{models.StatusNoActiveChallenge, http.StatusConflict},
		{models.StatusFinishChallengeFirst, http.StatusConflict},
		{models.StatusTransientFailure, http.StatusServiceUnavailable},
	}

	for _, tc := range testCases {
		if got := outcomeStatus(tc.status); got != tc.code {
			t.Errorf("%s: expected %d, got %d", tc.status, tc.code, got)
		}
	}
}
