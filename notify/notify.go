// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package notify

import (
	"context"
	"errors"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/danielhkuo/pollgate/challenge"
	"github.com/danielhkuo/pollgate/models"
)

// LogNotifier writes each accepted vote to the structured log.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.Named("votelog")}
}

func (n *LogNotifier) VoteRecorded(_ context.Context, rec models.VoteRecord) error {
	fields := []zap.Field{
		zap.String("poll_id", rec.PollID),
		zap.String("question", rec.Question),
		zap.String("voter", rec.MaskedVoter),
		zap.String("option", rec.OptionLabel),
		zap.String("vote", "#"+humanize.Comma(int64(rec.SequenceNumber))),
		zap.Int("total", rec.Total),
	}
	if rec.LogChannel != nil {
		fields = append(fields, zap.String("log_channel", *rec.LogChannel))
	}
	n.logger.Info("vote recorded", fields...)
	return nil
}

// Multi fans a record out to every notifier and joins their errors.
type Multi []challenge.Notifier

func (m Multi) VoteRecorded(ctx context.Context, rec models.VoteRecord) error {
	var errs []error
	for _, n := range m {
		if err := n.VoteRecorded(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
