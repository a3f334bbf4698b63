// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/pollgate/auth"
	"github.com/danielhkuo/pollgate/challenge"
	"github.com/danielhkuo/pollgate/display"
	"github.com/danielhkuo/pollgate/middleware"
	"github.com/danielhkuo/pollgate/models"
	"go.uber.org/zap"
)

// VoteHandler turns chat events into challenge controller calls.
type VoteHandler struct {
	controller *challenge.Controller
	mailbox    *display.Mailbox
	logger     *zap.Logger
}

func NewVoteHandler(controller *challenge.Controller, mailbox *display.Mailbox, logger *zap.Logger) *VoteHandler {
	return &VoteHandler{controller: controller, mailbox: mailbox, logger: logger.Named("votes")}
}

// BeginVote handles POST /polls/{id}/votes
func (h *VoteHandler) BeginVote(w http.ResponseWriter, r *http.Request) {
	voter, ok := voterOrReject(w, r)
	if !ok {
		return
	}

	var req models.BeginVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	h.respond(w, voter, h.controller.BeginVote(r.Context(), voter, r.PathValue("id"), req.OptionIndex))
}

// SubmitAnswer handles POST /challenge/answer
func (h *VoteHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	voter, ok := voterOrReject(w, r)
	if !ok {
		return
	}

	var req models.SubmitAnswerRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	h.respond(w, voter, h.controller.SubmitAnswer(r.Context(), voter, req.Value))
}

// Cancel handles DELETE /challenge
func (h *VoteHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	voter, ok := voterOrReject(w, r)
	if !ok {
		return
	}

	h.respond(w, voter, h.controller.Cancel(r.Context(), voter))
}

// SendText handles POST /messages. The text itself is never interpreted;
// a voter mid-challenge is told to finish it first.
func (h *VoteHandler) SendText(w http.ResponseWriter, r *http.Request) {
	voter, ok := voterOrReject(w, r)
	if !ok {
		return
	}

	var req models.TextMessageRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	h.logger.Debug("chat text", zap.String("voter", auth.MaskVoterID(voter.ID)), zap.Int("length", len(req.Text)))

	h.respond(w, voter, h.controller.HandleInput(r.Context(), voter))
}

func (h *VoteHandler) respond(w http.ResponseWriter, voter challenge.Voter, out models.Outcome) {
	if screen, ok := h.mailbox.Screen(voter.ID); ok {
		out.Screen = &screen
	}
	middleware.JSONResponse(w, outcomeStatus(out.Status), out)
}

func voterOrReject(w http.ResponseWriter, r *http.Request) (challenge.Voter, bool) {
	id, name, err := middleware.VoterFromRequest(r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "X-Voter-ID header is required")
		return challenge.Voter{}, false
	}
	return challenge.Voter{ID: id, Name: name}, true
}

// outcomeStatus maps a challenge outcome to its HTTP status code.
func outcomeStatus(status string) int {
	switch status {
	case models.StatusPollNotFound:
		return http.StatusNotFound
	case models.StatusPollInactive:
		return http.StatusGone
	case models.StatusInvalidOption:
		return http.StatusBadRequest
	case models.StatusAlreadyVoted, models.StatusNoActiveChallenge, models.StatusFinishChallengeFirst:
		return http.StatusConflict
	case models.StatusTransientFailure:
		return http.StatusServiceUnavailable
	default:
		return http.StatusOK
	}
}
