// Package answer replies to guest questions about the restaurant from the
// FAQ entries in the layout file, optionally phrased by Gemini.
package answer

import (
	"context"
	"errors"
	"sort"
	"strings"
	"unicode"

	"github.com/iliyamo/table-reservation/internal/config"
)

// ErrUnavailable is returned by a candidate that cannot run in this
// process, for example Gemini without an API key.
var ErrUnavailable = errors.New("answerer unavailable")

// Answer is a reply with a confidence between 0 and 1.
type Answer struct {
	Text       string  `json:"answer"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source,omitempty"`
}

// Answerer replies to a free text question.
type Answerer interface {
	Name() string
	Answer(ctx context.Context, question string) (Answer, error)
}

// Match is a knowledge entry scored against a question.
type Match struct {
	Entry config.FAQEntry
	Score float64
}

// Knowledge is a small keyword index over FAQ entries.
type Knowledge struct {
	entries []config.FAQEntry
}

func NewKnowledge(entries []config.FAQEntry) *Knowledge {
	return &Knowledge{entries: entries}
}

// Len is the number of entries.
func (k *Knowledge) Len() int { return len(k.entries) }

// Retrieve returns up to topK entries that share keywords with the
// question, best first.  A keyword counts when it appears as a phrase in
// the question; the topic counts like one more keyword.
func (k *Knowledge) Retrieve(question string, topK int) []Match {
	q := " " + normalize(question) + " "
	if strings.TrimSpace(q) == "" || topK <= 0 {
		return nil
	}
	var out []Match
	for _, e := range k.entries {
		hits := 0
		for _, kw := range e.Keywords {
			if kw = normalize(kw); kw != "" && strings.Contains(q, " "+kw+" ") {
				hits++
			}
		}
		if t := normalize(e.Topic); t != "" && strings.Contains(q, " "+t+" ") {
			hits++
		}
		if hits == 0 {
			continue
		}
		out = append(out, Match{Entry: e, Score: score(hits)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > topK {
		out = out[:topK]
	}
	return out
}

// score maps keyword hits onto a confidence: one hit is a fair guess,
// three or more is as sure as keyword matching gets.
func score(hits int) float64 {
	s := 0.6 + 0.15*float64(hits)
	if s > 0.95 {
		s = 0.95
	}
	return s
}

// normalize lowercases and turns punctuation into single spaces so
// keywords match on word boundaries.
func normalize(s string) string {
	var b strings.Builder
	space := true
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimSpace(b.String())
}
