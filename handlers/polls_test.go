// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"testing"

	"github.com/danielhkuo/pollgate/auth"
	"github.com/danielhkuo/pollgate/models"
	"github.com/danielhkuo/pollgate/testutil"
)

func TestCreatePoll(t *testing.T) {
	env := newTestEnv(t, 3)

	req := testutil.MakeRequest("POST", "/polls", models.CreatePollRequest{
		Question:   "Lunch?",
		Options:    []string{"Pizza", "Sushi", "Tacos"},
		LogChannel: "@lunchlog",
	}, testutil.VoterHeaders(42))
	w := serve("POST /polls", env.polls.CreatePoll, req)

	testutil.AssertStatus(t, w, http.StatusCreated)

	var resp models.CreatePollResponse
	testutil.AssertJSON(t, w, &resp)

	if resp.PollID == "" {
		t.Fatal("Expected poll_id in response")
	}
	if err := auth.ValidateAdminKey(resp.PollID, resp.AdminKey, testutil.TestAdminSalt); err != nil {
		t.Errorf("Returned admin key does not validate: %v", err)
	}
	if resp.Link != "/polls/"+resp.PollID {
		t.Errorf("Expected link /polls/%s, got %s", resp.PollID, resp.Link)
	}

	var creator int64
	var active bool
	err := env.db.QueryRow("SELECT creator_id, is_active FROM polls WHERE poll_id = ?", resp.PollID).Scan(&creator, &active)
	if err != nil {
		t.Fatalf("Poll not stored: %v", err)
	}
	if creator != 42 || !active {
		t.Errorf("Expected active poll owned by 42, got creator=%d active=%v", creator, active)
	}
}

func TestCreatePoll_Validation(t *testing.T) {
	env := newTestEnv(t, 3)

	testCases := []struct {
		name    string
		body    any
		headers map[string]string
		status  int
	}{
		{"missing voter", models.CreatePollRequest{Question: "Q", Options: []string{"A", "B"}}, nil, http.StatusBadRequest},
		{"missing question", models.CreatePollRequest{Options: []string{"A", "B"}}, testutil.VoterHeaders(1), http.StatusBadRequest},
		{"one option", models.CreatePollRequest{Question: "Q", Options: []string{"A"}}, testutil.VoterHeaders(1), http.StatusBadRequest},
		{"blank option", models.CreatePollRequest{Question: "Q", Options: []string{"A", "  "}}, testutil.VoterHeaders(1), http.StatusBadRequest},
		{"too many options", models.CreatePollRequest{Question: "Q", Options: []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11"}}, testutil.VoterHeaders(1), http.StatusBadRequest},
		{"not JSON", "just text", testutil.VoterHeaders(1), http.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := testutil.MakeRequest("POST", "/polls", tc.body, tc.headers)
			w := serve("POST /polls", env.polls.CreatePoll, req)
			testutil.AssertStatus(t, w, tc.status)
		})
	}
}

func TestGetPoll(t *testing.T) {
	env := newTestEnv(t, 3)
	pollID, _ := testutil.CreateTestPoll(t, env.db, 1, "Lunch?", "Pizza", "Sushi")
	testutil.CastTestVote(t, env.db, pollID, 10, 0)
	testutil.CastTestVote(t, env.db, pollID, 11, 0)
	testutil.CastTestVote(t, env.db, pollID, 12, 1)

	t.Run("anonymous", func(t *testing.T) {
		w := serve("GET /polls/{id}", env.polls.GetPoll, testutil.MakeRequest("GET", "/polls/"+pollID, nil, nil))
		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.PollResponse
		testutil.AssertJSON(t, w, &resp)

		if resp.Poll.Question != "Lunch?" || len(resp.Poll.Options) != 2 {
			t.Errorf("Unexpected poll: %+v", resp.Poll)
		}
		if resp.Tally[0] != 2 || resp.Tally[1] != 1 {
			t.Errorf("Expected tally {0:2 1:1}, got %v", resp.Tally)
		}
		if resp.Total != 3 {
			t.Errorf("Expected total 3, got %d", resp.Total)
		}
		if resp.HasVoted != nil {
			t.Error("Expected has_voted to be omitted without X-Voter-ID")
		}
	})

	for _, tc := range []struct {
		voter int64
		want  bool
	}{{10, true}, {99, false}} {
		req := testutil.MakeRequest("GET", "/polls/"+pollID, nil, testutil.VoterHeaders(tc.voter))
		w := serve("GET /polls/{id}", env.polls.GetPoll, req)

		var resp models.PollResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.HasVoted == nil || *resp.HasVoted != tc.want {
			t.Errorf("voter %d: expected has_voted=%v, got %v", tc.voter, tc.want, resp.HasVoted)
		}
	}
}

func TestGetPoll_NotFound(t *testing.T) {
	env := newTestEnv(t, 3)

	w := serve("GET /polls/{id}", env.polls.GetPoll, testutil.MakeRequest("GET", "/polls/nope", nil, nil))
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestGetPoll_InactiveStillVisible(t *testing.T) {
	env := newTestEnv(t, 3)
	pollID, _ := testutil.CreateTestPoll(t, env.db, 1, "Old?", "Yes", "No")
	testutil.DeactivateTestPoll(t, env.db, pollID)

	w := serve("GET /polls/{id}", env.polls.GetPoll, testutil.MakeRequest("GET", "/polls/"+pollID, nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.PollResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Poll.Active {
		t.Error("Expected inactive poll")
	}
}

func TestListMyPolls(t *testing.T) {
	env := newTestEnv(t, 3)
	testutil.CreateTestPoll(t, env.db, 5, "First?", "A", "B")
	testutil.CreateTestPoll(t, env.db, 5, "Second?", "A", "B")
	testutil.CreateTestPoll(t, env.db, 6, "Other?", "A", "B")

	req := testutil.MakeRequest("GET", "/polls", nil, testutil.VoterHeaders(5))
	w := serve("GET /polls", env.polls.ListMyPolls, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp struct {
		Polls []models.Poll `json:"polls"`
	}
	testutil.AssertJSON(t, w, &resp)
	if len(resp.Polls) != 2 {
		t.Fatalf("Expected 2 polls, got %d", len(resp.Polls))
	}
	for _, p := range resp.Polls {
		if p.CreatorID != 5 {
			t.Errorf("Listed poll of creator %d", p.CreatorID)
		}
	}

	w = serve("GET /polls", env.polls.ListMyPolls, testutil.MakeRequest("GET", "/polls", nil, nil))
	testutil.AssertStatus(t, w, http.StatusBadRequest)
}

func TestDeletePoll(t *testing.T) {
	const creator = 77

	testCases := []struct {
		name     string
		headers  func(adminKey string) map[string]string
		inactive bool
		status   int
	}{
		{"valid admin key", func(k string) map[string]string { return map[string]string{"X-Admin-Key": k} }, false, http.StatusOK},
		{"invalid admin key", func(string) map[string]string { return map[string]string{"X-Admin-Key": "wrong"} }, false, http.StatusUnauthorized},
		{"creator", func(string) map[string]string { return testutil.VoterHeaders(creator) }, false, http.StatusOK},
		{"another voter", func(string) map[string]string { return testutil.VoterHeaders(creator + 1) }, false, http.StatusForbidden},
		{"no credentials", func(string) map[string]string { return nil }, false, http.StatusUnauthorized},
		{"already inactive", func(k string) map[string]string { return map[string]string{"X-Admin-Key": k} }, true, http.StatusGone},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t, 3)
			pollID, adminKey := testutil.CreateTestPoll(t, env.db, creator, "Delete me?", "Yes", "No")
			if tc.inactive {
				testutil.DeactivateTestPoll(t, env.db, pollID)
			}

			req := testutil.MakeRequest("DELETE", "/polls/"+pollID, nil, tc.headers(adminKey))
			w := serve("DELETE /polls/{id}", env.polls.DeletePoll, req)
			testutil.AssertStatus(t, w, tc.status)

			var active bool
			if err := env.db.QueryRow("SELECT is_active FROM polls WHERE poll_id = ?", pollID).Scan(&active); err != nil {
				t.Fatalf("Failed to read poll: %v", err)
			}
			wantActive := !tc.inactive && tc.status != http.StatusOK
			if active != wantActive {
				t.Errorf("Expected is_active=%v, got %v", wantActive, active)
			}
		})
	}
}

func TestDeletePoll_NotFound(t *testing.T) {
	env := newTestEnv(t, 3)

	req := testutil.MakeRequest("DELETE", "/polls/nope", nil, testutil.VoterHeaders(1))
	w := serve("DELETE /polls/{id}", env.polls.DeletePoll, req)
	testutil.AssertStatus(t, w, http.StatusNotFound)
}
