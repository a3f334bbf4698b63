// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"net/http"

	"github.com/danielhkuo/pollgate/auth"
	"github.com/danielhkuo/pollgate/cliparse"
	"github.com/danielhkuo/pollgate/ledger"
	"github.com/danielhkuo/pollgate/middleware"
	"github.com/danielhkuo/pollgate/models"
	"github.com/danielhkuo/pollgate/polls"
	"go.uber.org/zap"
)

type PollHandler struct {
	polls  *polls.Store
	ledger *ledger.Ledger
	cfg    cliparse.Config
	logger *zap.Logger
}

func NewPollHandler(store *polls.Store, lg *ledger.Ledger, cfg cliparse.Config, logger *zap.Logger) *PollHandler {
	return &PollHandler{polls: store, ledger: lg, cfg: cfg, logger: logger.Named("polls")}
}

// CreatePoll handles POST /polls
func (h *PollHandler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	creatorID, _, err := middleware.VoterFromRequest(r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "X-Voter-ID header is required")
		return
	}

	var req models.CreatePollRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	poll, err := h.polls.Create(r.Context(), creatorID, req)
	if errors.Is(err, polls.ErrInvalidPoll) {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.logger.Error("failed to create poll", zap.Error(err))
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Failed to create poll")
		return
	}

	h.logger.Info("poll created",
		zap.String("poll_id", poll.ID),
		zap.String("creator", auth.MaskVoterID(creatorID)),
		zap.Int("options", len(poll.Options)),
	)

	middleware.JSONResponse(w, http.StatusCreated, models.CreatePollResponse{
		PollID:   poll.ID,
		AdminKey: auth.GenerateAdminKey(poll.ID, h.cfg.AdminKeySalt),
		Link:     "/polls/" + poll.ID,
	})
}

// ListMyPolls handles GET /polls
func (h *PollHandler) ListMyPolls(w http.ResponseWriter, r *http.Request) {
	creatorID, _, err := middleware.VoterFromRequest(r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "X-Voter-ID header is required")
		return
	}

	list, err := h.polls.ListByCreator(r.Context(), creatorID)
	if err != nil {
		h.logger.Error("failed to list polls", zap.Error(err))
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, map[string]any{"polls": list})
}

// GetPoll handles GET /polls/{id}
func (h *PollHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")
	ctx := r.Context()

	poll, err := h.polls.GetPoll(ctx, pollID)
	if errors.Is(err, polls.ErrPollNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to load poll", zap.String("poll_id", pollID), zap.Error(err))
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Database error")
		return
	}

	tally, err := h.ledger.Tally(ctx, pollID)
	if err != nil {
		h.logger.Error("failed to tally poll", zap.String("poll_id", pollID), zap.Error(err))
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Database error")
		return
	}
	total, err := h.ledger.Total(ctx, pollID)
	if err != nil {
		h.logger.Error("failed to count votes", zap.String("poll_id", pollID), zap.Error(err))
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Database error")
		return
	}

	resp := models.PollResponse{Poll: poll, Tally: tally, Total: total}

	// has_voted only when the caller identifies itself
	if voterID, _, err := middleware.VoterFromRequest(r); err == nil {
		voted, err := h.ledger.HasVoted(ctx, pollID, voterID)
		if err != nil {
			h.logger.Error("failed to check vote", zap.String("poll_id", pollID), zap.Error(err))
			middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Database error")
			return
		}
		resp.HasVoted = &voted
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}

// DeletePoll handles DELETE /polls/{id}
// Allowed with a valid X-Admin-Key or from the poll's creator.
func (h *PollHandler) DeletePoll(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")
	ctx := r.Context()

	poll, err := h.polls.GetPoll(ctx, pollID)
	if errors.Is(err, polls.ErrPollNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to load poll", zap.String("poll_id", pollID), zap.Error(err))
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Database error")
		return
	}

	if adminKey := r.Header.Get(middleware.HeaderAdminKey); adminKey != "" {
		if err := auth.ValidateAdminKey(pollID, adminKey, h.cfg.AdminKeySalt); err != nil {
			middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
			return
		}
	} else {
		voterID, _, err := middleware.VoterFromRequest(r)
		if err != nil {
			middleware.ErrorResponse(w, http.StatusUnauthorized, "X-Admin-Key or X-Voter-ID header is required")
			return
		}
		if voterID != poll.CreatorID {
			middleware.ErrorResponse(w, http.StatusForbidden, "Only the poll creator can delete it")
			return
		}
	}

	if !poll.Active {
		middleware.ErrorResponse(w, http.StatusGone, "Poll is already closed")
		return
	}

	if err := h.polls.Deactivate(ctx, pollID); err != nil {
		if errors.Is(err, polls.ErrPollNotFound) {
			middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
			return
		}
		h.logger.Error("failed to deactivate poll", zap.String("poll_id", pollID), zap.Error(err))
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Failed to delete poll")
		return
	}

	h.logger.Info("poll deactivated", zap.String("poll_id", pollID))

	middleware.JSONResponse(w, http.StatusOK, map[string]any{
		"poll_id": pollID,
		"active":  false,
	})
}
