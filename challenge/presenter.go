// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package challenge

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/pollgate/models"
)

const (
	msgTransient    = "Something went wrong. Please start your vote again."
	msgNoChallenge  = "There is no puzzle waiting for an answer."
	msgAlreadyVoted = "You have already voted in this poll."
	msgCommitFailed = "Your vote could not be recorded. Please start your vote again."

	barWidth = 20
)

func puzzleCaption(prefix string, round, rounds int, chosen string) string {
	return fmt.Sprintf("%sPuzzle %d/%d\n\nYour choice: %s\n\nPick the answer to the picture above:", prefix, round, rounds, chosen)
}

// Tally renders one bar per option. The chosen option, if any, is marked.
func Tally(question string, options []string, tally map[int]int, total, chosen int) string {
	var b strings.Builder
	b.WriteString(question)
	b.WriteString("\n\n")

	for i, opt := range options {
		count := tally[i]
		pct := 0.0
		if total > 0 {
			pct = float64(count) / float64(total) * 100
		}
		filled := min(int(pct/5), barWidth)

		marker := "🔹"
		if i == chosen {
			marker = "✅"
		}
		fmt.Fprintf(&b, "%s %s\n%s%s %s (%.1f%%)\n\n",
			marker, opt,
			strings.Repeat("▓", filled), strings.Repeat("░", barWidth-filled),
			humanize.Comma(int64(count)), pct)
	}

	fmt.Fprintf(&b, "Total votes: %s", humanize.Comma(int64(total)))
	return b.String()
}

func acceptedText(poll models.Poll, result *models.VoteResult) string {
	text := "Your vote has been recorded!\n\n" +
		Tally(poll.Question, poll.Options, result.Tally, result.Total, result.OptionIndex)
	if result.SequenceNumber > 0 {
		text += fmt.Sprintf("\n\nYour vote number: #%s", humanize.Comma(int64(result.SequenceNumber)))
	}
	return text
}

// resultActions links to the poll's public vote log when it has a public address.
func resultActions(poll models.Poll, seq int) []models.Action {
	if poll.LogChannel == nil {
		return nil
	}
	url := channelURL(*poll.LogChannel)
	if url == "" {
		return nil
	}
	label := "Vote log"
	if seq > 0 {
		label = fmt.Sprintf("Vote #%s in the log", humanize.Comma(int64(seq)))
	}
	return []models.Action{{Label: label, URL: url}}
}

func channelURL(channel string) string {
	switch {
	case strings.HasPrefix(channel, "https://"):
		return channel
	case strings.HasPrefix(channel, "@") && len(channel) > 1:
		return "https://t.me/" + channel[1:]
	}
	return ""
}
