// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package captcha

import (
	"fmt"
	"math/rand/v2"
)

// Question is the arithmetic half of a puzzle, before rendering.
type Question struct {
	Expression string
	Answer     int
	Options    [4]int
}

// NewQuestion draws an operator and operands and builds the shuffled option set.
func NewQuestion(rng *rand.Rand) Question {
	var a, b, answer int
	var op string

	switch rng.IntN(3) {
	case 0:
		a, b = between(rng, 1, 60), between(rng, 1, 60)
		op, answer = "+", a+b
	case 1:
		a = between(rng, 1, 60)
		b = between(rng, 1, a)
		op, answer = "-", a-b
	default:
		a, b = between(rng, 2, 12), between(rng, 2, 12)
		op, answer = "×", a*b
	}

	return Question{
		Expression: fmt.Sprintf("%d %s %d", a, op, b),
		Answer:     answer,
		Options:    options(rng, answer),
	}
}

// options returns the answer and 3 distinct non-negative decoys in random order.
func options(rng *rand.Rand, answer int) [4]int {
	opts := [4]int{answer}
	n := 1
	for n < len(opts) {
		offset := between(rng, 1, 10)
		if rng.IntN(2) == 0 {
			offset = -offset
		}
		decoy := answer + offset
		if decoy < 0 || contains(opts[:n], decoy) {
			continue
		}
		opts[n] = decoy
		n++
	}

	rng.Shuffle(len(opts), func(i, j int) { opts[i], opts[j] = opts[j], opts[i] })
	return opts
}

func contains(values []int, v int) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

// between returns a uniform int in [lo, hi].
func between(rng *rand.Rand, lo, hi int) int {
	return lo + rng.IntN(hi-lo+1)
}
