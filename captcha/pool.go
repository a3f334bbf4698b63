// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package captcha

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/danielhkuo/pollgate/metrics"
	"github.com/danielhkuo/pollgate/models"
)

// Generator produces one puzzle per call.
type Generator interface {
	Generate() (models.Puzzle, error)
}

// Pool bounds how many puzzles render at once so synthesis never starves
// request handling.
type Pool struct {
	gen     Generator
	sem     *semaphore.Weighted
	metrics *metrics.Metrics
}

func NewPool(gen Generator, workers int, m *metrics.Metrics) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{gen: gen, sem: semaphore.NewWeighted(int64(workers)), metrics: m}
}

// Generate waits for a free slot and renders a puzzle.
func (p *Pool) Generate(ctx context.Context) (models.Puzzle, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return models.Puzzle{}, fmt.Errorf("waiting for puzzle worker: %w", err)
	}
	defer p.sem.Release(1)

	start := time.Now()
	puzzle, err := p.gen.Generate()
	p.metrics.ObserveSynthesis(time.Since(start))
	if err != nil {
		return models.Puzzle{}, fmt.Errorf("generate puzzle: %w", err)
	}
	return puzzle, nil
}
