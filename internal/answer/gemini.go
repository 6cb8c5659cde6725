package answer

import (
	"context"
	"fmt"
	"strings"
	"time"

	genai "github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const hostInstruction = "You are a friendly host at a restaurant. Answer the guest's question warmly in at most " +
	"three sentences, using only the facts provided. If the facts do not cover the question, say so and " +
	"suggest calling the restaurant."

// directScore is the retrieval score above which the FAQ text is returned
// as is, without asking the model.
const directScore = 0.85

type generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Gemini retrieves the closest FAQ entries and has Gemini phrase an
// answer from them.  When the model fails the best entry is returned
// verbatim.
type Gemini struct {
	client  *genai.Client
	model   generator
	kb      *Knowledge
	topK    int
	timeout time.Duration
	log     *zap.Logger
}

// NewGemini dials the Gemini API.  It returns ErrUnavailable without a key.
func NewGemini(ctx context.Context, apiKey, modelName string, kb *Knowledge, topK int, timeout time.Duration, log *zap.Logger) (*Gemini, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("%w: GEMINI_API_KEY not set", ErrUnavailable)
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.2)
	model.SetMaxOutputTokens(256)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(hostInstruction)}}

	g := newGemini(model, kb, topK, timeout, log)
	g.client = client
	return g, nil
}

func newGemini(model generator, kb *Knowledge, topK int, timeout time.Duration, log *zap.Logger) *Gemini {
	if topK <= 0 {
		topK = 3
	}
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Gemini{model: model, kb: kb, topK: topK, timeout: timeout, log: log}
}

func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) Answer(ctx context.Context, question string) (Answer, error) {
	matches := g.kb.Retrieve(question, g.topK)
	if len(matches) > 0 && matches[0].Score >= directScore {
		return Answer{Text: matches[0].Entry.Answer, Confidence: matches[0].Score, Source: matches[0].Entry.Topic}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt(question, matches)))
	if err == nil {
		if text := responseText(resp); text != "" {
			conf := 0.5
			if len(matches) > 0 {
				conf = matches[0].Score
			}
			return Answer{Text: text, Confidence: conf, Source: g.Name()}, nil
		}
		err = fmt.Errorf("empty response")
	}
	g.log.Warn("answer: gemini failed, using faq text", zap.Error(err))
	if len(matches) > 0 {
		return Answer{Text: matches[0].Entry.Answer, Confidence: matches[0].Score, Source: matches[0].Entry.Topic}, nil
	}
	return Answer{}, fmt.Errorf("gemini generate: %w", err)
}

// Close releases the API client.
func (g *Gemini) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

func prompt(question string, matches []Match) string {
	var b strings.Builder
	b.WriteString("Facts:\n")
	if len(matches) == 0 {
		b.WriteString("- (none)\n")
	}
	for _, m := range matches {
		fmt.Fprintf(&b, "- %s: %s\n", m.Entry.Topic, m.Entry.Answer)
	}
	b.WriteString("\nQuestion: ")
	b.WriteString(strings.TrimSpace(question))
	return b.String()
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return strings.TrimSpace(sb.String())
}
