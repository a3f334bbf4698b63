// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package captcha renders the arithmetic image puzzles voters solve before a
vote is recorded.

# Questions

NewQuestion picks +, - or × uniformly:

	add        a, b in 1..60
	subtract   a in 1..60, b in 1..a
	multiply   a, b in 2..12

and returns the answer with 3 distinct non-negative decoys (answer ± 1..10),
shuffled into a 4-slot option set.

# Rendering

Synthesizer.Generate draws "a op b = ?" on a 300x120 light background:
stray lines, dots, then each glyph on its own rotated (±15°), offset (±8px)
and optionally scaled (0.85-1.15) tile, then curves. A sine/cosine wave
displaces the whole canvas and a watermark is stamped bottom-right.

Rendering is CPU-bound. Callers go through a Pool, which caps concurrent
renders with a weighted semaphore:

	pool := captcha.NewPool(synth, 8, m)
	puzzle, err := pool.Generate(ctx)
*/
package captcha
