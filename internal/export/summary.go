package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/nvandessel/cuesched/internal/schedule"
)

// EpisodeSummary is the per-episode digest printed by `cuesched show`.
type EpisodeSummary struct {
	Episode        int    `json:"episode"`
	Length         int    `json:"length"`
	LearningLength int    `json:"learning_length"`
	StartIdentity  int    `json:"start_identity"`
	StartColor     string `json:"start_color"`
	Omissions      int    `json:"omissions"`
	Oddballs       int    `json:"oddballs"`
	LongestStreak  int    `json:"longest_streak"`
}

// Summarize digests res one episode at a time. Learning lengths come from
// the episode plan when present and are zero otherwise.
func Summarize(res *schedule.Result) []EpisodeSummary {
	if res == nil {
		return nil
	}

	out := make([]EpisodeSummary, len(res.EpisodeLengths))
	colors := make([][]string, len(res.EpisodeLengths))
	for i := range out {
		out[i].Episode = i + 1
	}

	for _, t := range res.Trials {
		e := t.Episode - 1
		if e < 0 || e >= len(out) {
			continue
		}
		s := &out[e]
		if s.Length == 0 {
			s.StartColor = t.CueColor
			s.StartIdentity = t.CueIdentity
		}
		s.Length++
		if t.Omitted() {
			s.Omissions++
		}
		if t.Oddball {
			s.Oddballs++
		}
		colors[e] = append(colors[e], t.CueColor)
	}

	for _, ep := range res.Episodes {
		if e := ep.Index - 1; e >= 0 && e < len(out) {
			out[e].LearningLength = ep.LearningLength
		}
	}
	for i := range out {
		out[i].LongestStreak = schedule.LongestRun(colors[i])
	}
	return out
}

// WriteSummary prints the summaries as a fixed-width table followed by a
// totals line.
func WriteSummary(w io.Writer, res *schedule.Result) error {
	summaries := Summarize(res)

	if _, err := fmt.Fprintf(w, "%-8s %6s %8s %-10s %6s %6s %6s\n",
		"Episode", "Length", "Learning", "Start", "Omit", "Odd", "Streak"); err != nil {
		return err
	}
	fmt.Fprintln(w, strings.Repeat("-", 58))

	var trials, omissions, oddballs int
	for _, s := range summaries {
		start := fmt.Sprintf("%d %s", s.StartIdentity, res.Palette.Label(s.StartColor))
		fmt.Fprintf(w, "%-8d %6d %8d %-10s %6d %6d %6d\n",
			s.Episode, s.Length, s.LearningLength, start, s.Omissions, s.Oddballs, s.LongestStreak)
		trials += s.Length
		omissions += s.Omissions
		oddballs += s.Oddballs
	}

	fmt.Fprintln(w, strings.Repeat("-", 58))
	_, err := fmt.Fprintf(w, "%d trials, %d omissions, %d oddballs\n", trials, omissions, oddballs)
	return err
}
