// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/danielhkuo/pollgate/challenge"
	"github.com/danielhkuo/pollgate/cliparse"
	"github.com/danielhkuo/pollgate/display"
	"github.com/danielhkuo/pollgate/handlers"
	"github.com/danielhkuo/pollgate/ledger"
	"github.com/danielhkuo/pollgate/middleware"
	"github.com/danielhkuo/pollgate/polls"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Deps struct {
	Config     cliparse.Config
	Polls      *polls.Store
	Ledger     *ledger.Ledger
	Controller *challenge.Controller
	Mailbox    *display.Mailbox
	Gatherer   prometheus.Gatherer
	Logger     *zap.Logger
}

func NewRouter(deps Deps) *http.ServeMux {
	mux := http.NewServeMux()
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.Named("http")

	// Initialize handlers
	pollHandler := handlers.NewPollHandler(deps.Polls, deps.Ledger, deps.Config, logger)
	voteHandler := handlers.NewVoteHandler(deps.Controller, deps.Mailbox, logger)
	screenHandler := handlers.NewScreenHandler(deps.Mailbox)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	if deps.Gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	// Polls
	mux.HandleFunc("POST /polls", middleware.WithLogging(log, pollHandler.CreatePoll))
	mux.HandleFunc("GET /polls", middleware.WithLogging(log, pollHandler.ListMyPolls))
	mux.HandleFunc("GET /polls/{id}", middleware.WithLogging(log, pollHandler.GetPoll))
	mux.HandleFunc("DELETE /polls/{id}", middleware.WithLogging(log, pollHandler.DeletePoll))

	// Challenge events
	mux.HandleFunc("POST /polls/{id}/votes", middleware.WithLogging(log, voteHandler.BeginVote))
	mux.HandleFunc("POST /challenge/answer", middleware.WithLogging(log, voteHandler.SubmitAnswer))
	mux.HandleFunc("DELETE /challenge", middleware.WithLogging(log, voteHandler.Cancel))
	mux.HandleFunc("POST /messages", middleware.WithLogging(log, voteHandler.SendText))

	// Voter screen
	mux.HandleFunc("GET /screen", middleware.WithLogging(log, screenHandler.GetScreen))
	mux.HandleFunc("GET /screen/messages/{file}", middleware.WithLogging(log, screenHandler.GetImage))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("pollgate API v1"))
	})

	return mux
}
