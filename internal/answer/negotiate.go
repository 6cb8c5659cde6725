package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/table-reservation/internal/config"
)

// Candidate is an answerer that may or may not start in this process.
type Candidate struct {
	Name  string
	Build func(ctx context.Context) (Answerer, error)
}

// Negotiate returns the first candidate that builds.  Candidates are
// tried in order; failures are logged and skipped.
func Negotiate(ctx context.Context, log *zap.Logger, candidates ...Candidate) (Answerer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var errs []error
	for _, c := range candidates {
		a, err := c.Build(ctx)
		if err != nil {
			log.Info("answer: candidate skipped", zap.String("answerer", c.Name), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", c.Name, err))
			continue
		}
		log.Info("answer: using answerer", zap.String("answerer", a.Name()))
		return a, nil
	}
	if len(errs) == 0 {
		return nil, ErrUnavailable
	}
	return nil, errors.Join(errs...)
}

// Candidates lists the answerers allowed by cfg.Mode, best first:
// "gemini" only, "keyword" only, or "auto" for Gemini then keyword.
func Candidates(cfg config.AnswerConfig, kb *Knowledge, log *zap.Logger) ([]Candidate, error) {
	gemini := Candidate{Name: "gemini", Build: func(ctx context.Context) (Answerer, error) {
		return NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, kb, cfg.TopK, cfg.Timeout, log)
	}}
	keyword := Candidate{Name: "keyword", Build: func(ctx context.Context) (Answerer, error) {
		return NewKeyword(kb), nil
	}}
	switch strings.ToLower(strings.TrimSpace(cfg.Mode)) {
	case "", "auto":
		return []Candidate{gemini, keyword}, nil
	case "gemini":
		return []Candidate{gemini}, nil
	case "keyword":
		return []Candidate{keyword}, nil
	}
	return nil, fmt.Errorf("answer: unknown ANSWERER %q (want auto, gemini or keyword)", cfg.Mode)
}
