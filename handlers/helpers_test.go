// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/pollgate/challenge"
	"github.com/danielhkuo/pollgate/db"
	"github.com/danielhkuo/pollgate/display"
	"github.com/danielhkuo/pollgate/ledger"
	"github.com/danielhkuo/pollgate/models"
	"github.com/danielhkuo/pollgate/notify"
	"github.com/danielhkuo/pollgate/polls"
	"github.com/danielhkuo/pollgate/session"
	"github.com/danielhkuo/pollgate/testutil"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Every test puzzle has the same answer so flows can be driven over HTTP.
const testAnswer = 7

var testOptions = [4]int{3, testAnswer, 9, 12}

type fixedPuzzles struct{}

func (fixedPuzzles) Generate(context.Context) (models.Puzzle, error) {
	return models.Puzzle{
		ID:         uuid.NewString(),
		Image:      []byte("\x89PNG test"),
		Expression: "3 + 4",
		Answer:     testAnswer,
		Options:    testOptions,
	}, nil
}

type testEnv struct {
	db       *sql.DB
	polls    *PollHandler
	votes    *VoteHandler
	screen   *ScreenHandler
	mailbox  *display.Mailbox
	sessions *session.MemoryStore
	rounds   int
}

func newTestEnv(t *testing.T, rounds int) *testEnv {
	t.Helper()

	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	logger := zap.NewNop()

	store := polls.NewStore(conn, db.SQLite)
	lg := ledger.New(conn, db.SQLite, logger, nil)
	mailbox := display.NewMailbox()
	sessions := session.NewMemoryStore(0)

	controller := challenge.New(challenge.Deps{
		Polls:    store,
		Ledger:   lg,
		Puzzles:  fixedPuzzles{},
		Sessions: sessions,
		Display:  mailbox,
		Notifier: notify.NewLogNotifier(logger),
		Logger:   logger,
	}, rounds)

	return &testEnv{
		db:       conn,
		polls:    NewPollHandler(store, lg, cfg, logger),
		votes:    NewVoteHandler(controller, mailbox, logger),
		screen:   NewScreenHandler(mailbox),
		mailbox:  mailbox,
		sessions: sessions,
		rounds:   controller.Rounds(),
	}
}

// serve routes a request through a mux so path values are populated.
func serve(pattern string, h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, h)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func (e *testEnv) begin(t *testing.T, voterID int64, pollID string, option int) (*httptest.ResponseRecorder, models.Outcome) {
	t.Helper()
	req := testutil.MakeRequest("POST", "/polls/"+pollID+"/votes",
		models.BeginVoteRequest{OptionIndex: option}, testutil.VoterHeaders(voterID))
	w := serve("POST /polls/{id}/votes", e.votes.BeginVote, req)
	var out models.Outcome
	testutil.AssertJSON(t, w, &out)
	return w, out
}

func (e *testEnv) answer(t *testing.T, voterID int64, value int) (*httptest.ResponseRecorder, models.Outcome) {
	t.Helper()
	req := testutil.MakeRequest("POST", "/challenge/answer",
		models.SubmitAnswerRequest{Value: value}, testutil.VoterHeaders(voterID))
	w := serve("POST /challenge/answer", e.votes.SubmitAnswer, req)
	var out models.Outcome
	testutil.AssertJSON(t, w, &out)
	return w, out
}
