package answer

import "context"

const fallbackText = "I can help with bookings, availability, our address and contact details, policies and specials. " +
	"Tell me a date, time and section and I can book a table for you."

// Keyword answers with the best matching FAQ entry verbatim.  It needs
// nothing but the layout file, so it is always available.
type Keyword struct {
	kb *Knowledge
}

func NewKeyword(kb *Knowledge) *Keyword { return &Keyword{kb: kb} }

func (k *Keyword) Name() string { return "keyword" }

func (k *Keyword) Answer(ctx context.Context, question string) (Answer, error) {
	if err := ctx.Err(); err != nil {
		return Answer{}, err
	}
	if m := k.kb.Retrieve(question, 1); len(m) > 0 {
		return Answer{Text: m[0].Entry.Answer, Confidence: m[0].Score, Source: m[0].Entry.Topic}, nil
	}
	return Answer{Text: fallbackText, Confidence: 0.3}, nil
}
