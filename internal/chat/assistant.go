package chat

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/table-reservation/internal/answer"
	"github.com/iliyamo/table-reservation/internal/booking"
	"github.com/iliyamo/table-reservation/internal/model"
	"github.com/iliyamo/table-reservation/internal/service"
)

// Booker is the part of the reservation service the assistant drives.
type Booker interface {
	Now() time.Time
	Book(ctx context.Context, req service.BookingRequest) (service.Outcome, error)
	Commit(ctx context.Context, req service.CommitRequest) (*model.Reservation, error)
	Reschedule(ctx context.Context, reference, date, clock string) (service.Outcome, error)
	Cancel(ctx context.Context, reference string) (*model.Reservation, error)
	CheckAvailability(ctx context.Context, q service.AvailabilityQuery) (booking.Summary, error)
}

// Reply is what the assistant says back.  Done is set once a booking,
// change or cancellation has gone through.
type Reply struct {
	SessionID   string             `json:"session_id"`
	Reply       string             `json:"reply"`
	Done        bool               `json:"done"`
	Reservation *model.Reservation `json:"reservation,omitempty"`
	Options     []OptionRef        `json:"options,omitempty"`
}

// Fields the assistant can be waiting for.
const (
	awaitParty      = "party_size"
	awaitDate       = "date"
	awaitTime       = "time"
	awaitContact    = "contact"
	awaitName       = "name"
	awaitOption     = "option"
	awaitReference  = "reference"
	awaitReschedule = "reschedule"
)

var (
	reOption = regexp.MustCompile(`^(?:option|opt|number|no\.?|#)?\s*(\d{1,2})\s*[.!]?$`)
	reBare   = regexp.MustCompile(`^\s*(\d{1,2})\s*$`)
)

// Assistant holds a booking conversation with a guest.
type Assistant struct {
	svc      Booker
	answerer answer.Answerer
	sessions SessionStore
	log      *zap.Logger
}

func NewAssistant(svc Booker, answerer answer.Answerer, sessions SessionStore, log *zap.Logger) *Assistant {
	if log == nil {
		log = zap.NewNop()
	}
	return &Assistant{svc: svc, answerer: answerer, sessions: sessions, log: log}
}

// Handle processes one guest message.  An empty sessionID starts a new
// conversation.  Errors are returned only when the session itself cannot
// be loaded or saved; booking problems become replies.
func (a *Assistant) Handle(ctx context.Context, sessionID, message string) (Reply, error) {
	sess, err := a.load(ctx, sessionID)
	if err != nil {
		return Reply{}, err
	}
	reply := a.respond(ctx, sess, strings.TrimSpace(message))
	reply.SessionID = sess.ID
	sess.UpdatedAt = time.Now().UTC()
	if err := a.sessions.Save(ctx, sess); err != nil {
		return Reply{}, fmt.Errorf("save session: %w", err)
	}
	return reply, nil
}

// Reset forgets a conversation.
func (a *Assistant) Reset(ctx context.Context, sessionID string) error {
	return a.sessions.Delete(ctx, sessionID)
}

func (a *Assistant) load(ctx context.Context, id string) (*Session, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return &Session{ID: uuid.NewString()}, nil
	}
	sess, err := a.sessions.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if sess == nil {
		sess = &Session{ID: id}
	}
	return sess, nil
}

func (a *Assistant) respond(ctx context.Context, sess *Session, msg string) Reply {
	if msg == "" {
		return Reply{Reply: "Say something like \"table for 4 tomorrow at 8pm\" and I'll find you a table."}
	}
	lower := strings.ToLower(msg)
	f := Extract(msg, a.svc.Now())

	switch {
	case containsWord(lower, "cancel"):
		return a.cancel(ctx, sess, f)
	case sess.Awaiting == awaitReference && f.Reference != "":
		return a.cancel(ctx, sess, f)
	case isReschedule(lower) || sess.Awaiting == awaitReschedule:
		return a.reschedule(ctx, sess, f)
	}

	if sess.Awaiting == awaitOption && len(sess.Options) > 0 {
		if r, ok := a.pickOption(ctx, sess, lower); ok {
			return r
		}
	}

	if isAvailabilityQuestion(lower) {
		return a.availability(ctx, sess, f)
	}

	f = a.interpret(sess, msg, f)
	if wantsBooking(lower) || !f.bookingEmpty() || (sess.Awaiting != "" && sess.Awaiting != awaitOption) {
		if f.bookingEmpty() && !wantsBooking(lower) {
			// an off-topic question in the middle of a booking
			r := a.faq(ctx, msg)
			r.Reply += " " + a.prompt(sess)
			return r
		}
		merge(&sess.Pending, f)
		return a.book(ctx, sess)
	}

	if isGreeting(lower) {
		return Reply{Reply: "Hello! I can book a table, check availability, or change and cancel a reservation. How many guests, and when?"}
	}
	return a.faq(ctx, msg)
}

// interpret reads bare answers ("4", "Priya Shah", "8") in the light of
// the question last asked.
func (a *Assistant) interpret(sess *Session, msg string, f Fields) Fields {
	n := 0
	if m := reBare.FindStringSubmatch(msg); m != nil {
		n, _ = strconv.Atoi(m[1])
	}
	switch sess.Awaiting {
	case awaitParty:
		if f.PartySize == 0 && n > 0 {
			f.PartySize = n
		}
	case awaitTime:
		// an hour without am or pm during a dinner booking means the evening
		switch {
		case f.Time != "" && !hasMeridiem(strings.ToLower(msg)):
			f.Time = evening(f.Time)
		case f.Time == "" && n >= 1 && n <= 11:
			f.Time = fmt.Sprintf("%02d:00", n+12)
		case f.Time == "" && n >= 12 && n <= 23:
			f.Time = fmt.Sprintf("%02d:00", n)
		}
	case awaitName:
		if f.Name == "" && LooksLikeName(msg) {
			f.Name = titleCase(msg)
		}
	}
	return f
}

func (f Fields) bookingEmpty() bool {
	return f.PartySize == 0 && f.Date == "" && f.Time == "" && f.Section == "" && !f.NoPreference &&
		f.Name == "" && f.Email == "" && f.Phone == ""
}

// merge folds newly found fields into the pending booking.  The guest may
// change party, date, time and section at any point; contact details are
// only taken the first time.
func merge(p *Fields, f Fields) {
	if f.PartySize > 0 {
		p.PartySize = f.PartySize
	}
	if f.Date != "" {
		p.Date = f.Date
	}
	if f.Time != "" {
		p.Time = f.Time
	}
	if f.Section != "" {
		p.Section, p.NoPreference = f.Section, false
	} else if f.NoPreference {
		p.Section, p.NoPreference = "", true
	}
	if p.Name == "" {
		p.Name = f.Name
	}
	if p.Email == "" {
		p.Email = f.Email
	}
	if p.Phone == "" {
		p.Phone = f.Phone
	}
}

// missing names the next detail to ask for, or "" when the booking can be
// attempted.
func missing(p Fields) string {
	switch {
	case p.PartySize <= 0:
		return awaitParty
	case p.Date == "":
		return awaitDate
	case p.Time == "":
		return awaitTime
	case p.Email == "" && p.Phone == "":
		return awaitContact
	case p.Name == "":
		return awaitName
	}
	return ""
}

var questions = map[string]string{
	awaitParty:   "How many guests will there be?",
	awaitDate:    "Which date would you like? (for example tomorrow, Friday or 2026-07-14)",
	awaitTime:    "What time should I book?",
	awaitContact: "What phone number or email can we reach you on?",
	awaitName:    "And the name for the booking?",
	awaitOption:  "Reply with the option number you'd like.",
}

func (a *Assistant) prompt(sess *Session) string {
	if q, ok := questions[sess.Awaiting]; ok {
		return q
	}
	return ""
}

func (a *Assistant) book(ctx context.Context, sess *Session) Reply {
	p := &sess.Pending
	if p.Date != "" && p.Time != "" {
		if past, ok := a.inPast(p.Date, p.Time); ok && past {
			p.Time = ""
			sess.Awaiting = awaitTime
			return Reply{Reply: "That time has already passed. What later time works for you?"}
		}
	}
	if next := missing(*p); next != "" {
		sess.Awaiting = next
		return Reply{Reply: questions[next]}
	}

	sess.Awaiting = ""
	out, err := a.svc.Book(ctx, service.BookingRequest{
		PartySize: p.PartySize,
		Date:      p.Date,
		Time:      p.Time,
		Section:   p.Section,
		Contact:   service.Contact{Name: p.Name, Email: p.Email, Phone: p.Phone},
	})
	if err != nil && !errors.Is(err, service.ErrConflict) {
		return a.failure(sess, err)
	}
	switch out.Kind {
	case service.OutcomeConfirmed:
		return a.done(sess, out.Reservation, out.Message)
	default:
		return a.offer(sess, out)
	}
}

// offer lists alternatives, or asks for another time when nothing fits.
func (a *Assistant) offer(sess *Session, out service.Outcome) Reply {
	if len(out.Options) == 0 {
		sess.Options = nil
		sess.Pending.Time = ""
		sess.Awaiting = awaitTime
		return Reply{Reply: out.Message + " Would another time work?"}
	}
	refs := make([]OptionRef, len(out.Options))
	var b strings.Builder
	b.WriteString(out.Message)
	for i, o := range out.Options {
		refs[i] = OptionRef{
			Section:  o.Section.Name,
			TableIDs: o.TableIDs(),
			Labels:   model.TableLabels(o.Tables),
			Capacity: o.Capacity(),
		}
		fmt.Fprintf(&b, "\n%d. %s, table %s (%d seats)", i+1, refs[i].Section, strings.Join(refs[i].Labels, "+"), refs[i].Capacity)
	}
	b.WriteString("\n" + questions[awaitOption])
	sess.Options = refs
	sess.Awaiting = awaitOption
	return Reply{Reply: b.String(), Options: refs}
}

func (a *Assistant) pickOption(ctx context.Context, sess *Session, lower string) (Reply, bool) {
	idx := 0
	switch {
	case reOption.MatchString(lower):
		idx, _ = strconv.Atoi(reOption.FindStringSubmatch(lower)[1])
	case isYes(lower) && len(sess.Options) == 1:
		idx = 1
	case isNo(lower):
		sess.Options = nil
		sess.Pending.Time = ""
		sess.Awaiting = awaitTime
		return Reply{Reply: "No problem. What other time would suit you?"}, true
	default:
		return Reply{}, false
	}
	if idx < 1 || idx > len(sess.Options) {
		return Reply{Reply: fmt.Sprintf("Please pick a number between 1 and %d.", len(sess.Options)), Options: sess.Options}, true
	}

	choice := sess.Options[idx-1]
	p := sess.Pending
	res, err := a.svc.Commit(ctx, service.CommitRequest{
		TableIDs:  choice.TableIDs,
		PartySize: p.PartySize,
		Date:      p.Date,
		Time:      p.Time,
		Contact:   service.Contact{Name: p.Name, Email: p.Email, Phone: p.Phone},
	})
	if errors.Is(err, service.ErrConflict) {
		// someone else took it; plan again from scratch
		sess.Options = nil
		sess.Pending.Section = ""
		r := a.book(ctx, sess)
		r.Reply = "That option was just taken. " + r.Reply
		return r, true
	}
	if err != nil {
		return a.failure(sess, err), true
	}
	msg := fmt.Sprintf("Confirmed: %d guests in %s at %s %s, table %s.",
		res.PartySize, choice.Section, p.Date, p.Time, strings.Join(choice.Labels, "+"))
	return a.done(sess, res, msg), true
}

func (a *Assistant) done(sess *Session, res *model.Reservation, msg string) Reply {
	sess.LastReference = res.Reference
	sess.LastDate = sess.Pending.Date
	sess.Pending = Fields{}
	sess.Options = nil
	sess.Awaiting = ""
	return Reply{
		Reply:       fmt.Sprintf("%s Your reference is %s.", msg, res.Reference),
		Done:        true,
		Reservation: res,
	}
}

func (a *Assistant) cancel(ctx context.Context, sess *Session, f Fields) Reply {
	ref := f.Reference
	if ref == "" {
		ref = sess.LastReference
	}
	if ref == "" {
		sess.Awaiting = awaitReference
		return Reply{Reply: "Sure. What is the booking reference you'd like to cancel?"}
	}
	sess.Awaiting = ""
	res, err := a.svc.Cancel(ctx, ref)
	if err != nil {
		return a.failure(sess, err)
	}
	if sess.LastReference == ref {
		sess.LastReference = ""
	}
	return Reply{
		Reply:       fmt.Sprintf("Reservation %s is cancelled.", res.Reference),
		Done:        true,
		Reservation: res,
	}
}

func (a *Assistant) reschedule(ctx context.Context, sess *Session, f Fields) Reply {
	ref := f.Reference
	if ref == "" {
		ref = sess.Pending.Reference
	}
	if ref == "" {
		ref = sess.LastReference
	}
	if ref == "" {
		sess.Awaiting = awaitReschedule
		return Reply{Reply: "Which booking should I move? Please share the reference."}
	}
	sess.Pending.Reference = ref
	if f.Date != "" {
		sess.Pending.Date = f.Date
	}
	if f.Time != "" {
		sess.Pending.Time = f.Time
	}
	date := sess.Pending.Date
	if date == "" {
		date = sess.LastDate
	}
	if date == "" || sess.Pending.Time == "" {
		sess.Awaiting = awaitReschedule
		return Reply{Reply: "What new date and time would you like?"}
	}

	out, err := a.svc.Reschedule(ctx, ref, date, sess.Pending.Time)
	if err != nil && !errors.Is(err, service.ErrConflict) {
		sess.Pending.Time = ""
		return a.failure(sess, err)
	}
	if out.Kind != service.OutcomeConfirmed {
		// the guest can try another time; the booking is unchanged
		sess.Pending.Time = ""
		sess.Awaiting = awaitReschedule
		return Reply{Reply: out.Message + " Your booking is unchanged. Try another time?"}
	}
	sess.Pending = Fields{}
	sess.Awaiting = ""
	sess.LastReference = out.Reservation.Reference
	sess.LastDate = date
	return Reply{Reply: "Moved. " + out.Message, Done: true, Reservation: out.Reservation}
}

func (a *Assistant) availability(ctx context.Context, sess *Session, f Fields) Reply {
	q := service.AvailabilityQuery{Date: f.Date, Time: f.Time, Section: f.Section}
	if q.Date == "" && q.Time != "" {
		q.Date = a.svc.Now().Format("2006-01-02")
	}
	sum, err := a.svc.CheckAvailability(ctx, q)
	if err != nil {
		return a.failure(sess, err)
	}
	where := "across the restaurant"
	if f.Section != "" {
		where = "in the " + f.Section + " area"
	}
	if sum.Available == 0 {
		return Reply{Reply: fmt.Sprintf("Sorry, no tables are free %s then.", where)}
	}
	return Reply{Reply: fmt.Sprintf("%d of %d tables are free %s. Shall I book one? Tell me how many guests.",
		sum.Available, sum.Total, where)}
}

func (a *Assistant) faq(ctx context.Context, msg string) Reply {
	if a.answerer == nil {
		return Reply{Reply: questions[awaitParty]}
	}
	ans, err := a.answerer.Answer(ctx, msg)
	if err != nil {
		a.log.Warn("chat: answerer failed", zap.String("answerer", a.answerer.Name()), zap.Error(err))
		return Reply{Reply: "Sorry, I can't answer that right now. I can still book a table for you."}
	}
	return Reply{Reply: ans.Text}
}

// failure turns a service error into something the guest can act on.
func (a *Assistant) failure(sess *Session, err error) Reply {
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		msg := strings.TrimPrefix(err.Error(), service.ErrInvalidRequest.Error()+": ")
		return Reply{Reply: strings.TrimSpace("Sorry, " + msg + ". " + a.prompt(sess))}
	case errors.Is(err, service.ErrNotFound):
		sess.Awaiting = ""
		return Reply{Reply: "I couldn't find a reservation with that reference."}
	default:
		a.log.Error("chat: booking call failed", zap.String("session", sess.ID), zap.Error(err))
		return Reply{Reply: "Our booking system is having trouble right now. Please try again in a few minutes."}
	}
}

func (a *Assistant) inPast(date, clock string) (bool, bool) {
	now := a.svc.Now()
	d, err := booking.ParseDate(date, now.Location())
	if err != nil {
		return false, false
	}
	c, err := booking.ParseClock(clock)
	if err != nil {
		return false, false
	}
	return booking.At(d, c, now.Location()).Before(now), true
}

func wantsBooking(lower string) bool {
	for _, w := range []string{"book", "reserve", "reservation", "table"} {
		if containsWord(lower, w) {
			return true
		}
	}
	return false
}

func isReschedule(lower string) bool {
	for _, w := range []string{"reschedule", "postpone", "move my", "change my"} {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

func isAvailabilityQuestion(lower string) bool {
	if containsWord(lower, "book") || containsWord(lower, "reserve") {
		return false
	}
	for _, w := range []string{"available", "availability", "free tables", "any tables", "tables free"} {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

func isGreeting(lower string) bool {
	for _, w := range strings.Fields(lower) {
		if greetings[strings.Trim(w, "!.,?")] {
			return true
		}
	}
	return false
}

func isYes(lower string) bool {
	switch strings.Trim(lower, "!. ") {
	case "yes", "y", "yeah", "yep", "sure", "ok", "okay", "confirm", "book it":
		return true
	}
	return false
}

func isNo(lower string) bool {
	switch strings.Trim(lower, "!. ") {
	case "no", "n", "nope", "none", "neither":
		return true
	}
	return false
}
