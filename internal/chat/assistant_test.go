package chat

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/table-reservation/internal/answer"
	"github.com/iliyamo/table-reservation/internal/booking"
	"github.com/iliyamo/table-reservation/internal/config"
	"github.com/iliyamo/table-reservation/internal/model"
	"github.com/iliyamo/table-reservation/internal/service"
)

const testRef = "3f2b6c1e-1111-4222-8333-444455556666"

type fakeBooker struct {
	now time.Time

	bookOut   []service.Outcome // consumed in order, the last one repeats
	bookErr   error
	commitErr error
	moveOut   service.Outcome
	summary   booking.Summary

	books   []service.BookingRequest
	commits []service.CommitRequest
	cancels []string
	moves   [][3]string
	queries []service.AvailabilityQuery
}

func (f *fakeBooker) Now() time.Time { return f.now }

func (f *fakeBooker) Book(ctx context.Context, req service.BookingRequest) (service.Outcome, error) {
	f.books = append(f.books, req)
	if f.bookErr != nil {
		return service.Outcome{}, f.bookErr
	}
	out := f.bookOut[0]
	if len(f.bookOut) > 1 {
		f.bookOut = f.bookOut[1:]
	}
	if out.Kind == service.OutcomeConfirmed && out.Reservation == nil {
		out.Reservation = &model.Reservation{Reference: testRef, PartySize: req.PartySize, Status: model.StatusConfirmed}
	}
	return out, nil
}

func (f *fakeBooker) Commit(ctx context.Context, req service.CommitRequest) (*model.Reservation, error) {
	f.commits = append(f.commits, req)
	if f.commitErr != nil {
		err := f.commitErr
		f.commitErr = nil
		return nil, err
	}
	return &model.Reservation{Reference: testRef, PartySize: req.PartySize, TableIDs: req.TableIDs, Status: model.StatusConfirmed}, nil
}

func (f *fakeBooker) Reschedule(ctx context.Context, reference, date, clock string) (service.Outcome, error) {
	f.moves = append(f.moves, [3]string{reference, date, clock})
	return f.moveOut, nil
}

func (f *fakeBooker) Cancel(ctx context.Context, reference string) (*model.Reservation, error) {
	f.cancels = append(f.cancels, reference)
	if reference != testRef {
		return nil, fmt.Errorf("%w: reservation", service.ErrNotFound)
	}
	return &model.Reservation{Reference: reference, Status: model.StatusCancelled}, nil
}

func (f *fakeBooker) CheckAvailability(ctx context.Context, q service.AvailabilityQuery) (booking.Summary, error) {
	f.queries = append(f.queries, q)
	return f.summary, nil
}

var confirmedOutcome = service.Outcome{Kind: service.OutcomeConfirmed, Message: "Confirmed: table L3."}

func lakeOptions() []booking.Option {
	lake := model.Section{ID: 1, Name: "Lake View", CanCombineTables: true, IsActive: true}
	garden := model.Section{ID: 2, Name: "Garden View", IsActive: true}
	return []booking.Option{
		{Section: lake, Tables: []model.Table{{ID: 1, Label: "L1", Capacity: 2}, {ID: 2, Label: "L2", Capacity: 2}}, Combined: true},
		{Section: garden, Tables: []model.Table{{ID: 5, Label: "G1", Capacity: 4}}},
	}
}

func newAssistant(t *testing.T, fb *fakeBooker) (*Assistant, *MemorySessionStore) {
	t.Helper()
	if fb.now.IsZero() {
		fb.now = wednesday
	}
	kb := answer.NewKnowledge([]config.FAQEntry{
		{Topic: "address", Keywords: []string{"address", "where are you"}, Answer: "We are at 12 Lakeside Road."},
	})
	sessions := NewMemorySessionStore(time.Hour)
	return NewAssistant(fb, answer.NewKeyword(kb), sessions, nil), sessions
}

// say sends messages in one conversation and returns the replies.
func say(t *testing.T, a *Assistant, msgs ...string) []Reply {
	t.Helper()
	var (
		id  string
		out []Reply
	)
	for _, m := range msgs {
		r, err := a.Handle(context.Background(), id, m)
		require.NoError(t, err)
		require.NotEmpty(t, r.SessionID)
		id = r.SessionID
		out = append(out, r)
	}
	return out
}

func TestAssistantCollectsDetailsAcrossTurns(t *testing.T) {
	fb := &fakeBooker{bookOut: []service.Outcome{confirmedOutcome}}
	a, sessions := newAssistant(t, fb)

	replies := say(t, a, "Table for 4 tomorrow at 8pm", "9845012345", "Priya Shah")

	assert.Equal(t, questions[awaitContact], replies[0].Reply)
	assert.Equal(t, questions[awaitName], replies[1].Reply)
	assert.True(t, replies[2].Done)
	assert.Contains(t, replies[2].Reply, testRef)

	require.Len(t, fb.books, 1)
	assert.Equal(t, service.BookingRequest{
		PartySize: 4, Date: "2026-07-02", Time: "20:00",
		Contact: service.Contact{Name: "Priya Shah", Phone: "9845012345"},
	}, fb.books[0])

	sess, err := sessions.Get(context.Background(), replies[2].SessionID)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, testRef, sess.LastReference)
	assert.Equal(t, "2026-07-02", sess.LastDate)
	assert.True(t, sess.Pending.Empty())
}

func TestAssistantAsksForPartyFirst(t *testing.T) {
	fb := &fakeBooker{bookOut: []service.Outcome{confirmedOutcome}}
	a, _ := newAssistant(t, fb)

	replies := say(t, a, "I'd like to book a table", "3", "friday", "7", "asha@example.com", "Asha")
	assert.Equal(t, questions[awaitParty], replies[0].Reply)
	assert.Equal(t, questions[awaitDate], replies[1].Reply)
	assert.Equal(t, questions[awaitTime], replies[2].Reply)
	assert.Equal(t, questions[awaitContact], replies[3].Reply)
	assert.Equal(t, questions[awaitName], replies[4].Reply)
	assert.True(t, replies[5].Done)

	require.Len(t, fb.books, 1)
	assert.Equal(t, 3, fb.books[0].PartySize)
	assert.Equal(t, "2026-07-03", fb.books[0].Date)
	assert.Equal(t, "19:00", fb.books[0].Time, "a bare hour means the evening")
	assert.Equal(t, "asha@example.com", fb.books[0].Contact.Email)
}

func TestAssistantReadsTimeAnswersAsEvening(t *testing.T) {
	tests := []struct {
		answer string
		want   string
	}{
		{"7", "19:00"},
		{"7:30", "19:30"},
		{"at 8.15", "20:15"},
		{"7 o'clock", "19:00"},
		{"7:30pm", "19:30"},
		{"11:30am", "11:30"},
		{"19:45", "19:45"},
		{"noon", "12:00"},
	}
	for _, tt := range tests {
		t.Run(tt.answer, func(t *testing.T) {
			fb := &fakeBooker{bookOut: []service.Outcome{confirmedOutcome}}
			a, _ := newAssistant(t, fb)

			replies := say(t, a, "Book a table for 2 on friday", tt.answer, "asha@example.com", "Asha")
			assert.Equal(t, questions[awaitTime], replies[0].Reply)
			require.Len(t, fb.books, 1)
			assert.Equal(t, tt.want, fb.books[0].Time)
		})
	}
}

func TestAssistantOffersOptionsAndCommitsChoice(t *testing.T) {
	fb := &fakeBooker{bookOut: []service.Outcome{{
		Kind:    service.OutcomeSuggestions,
		Options: lakeOptions(),
		Message: "Garden View has no table for 4, but these sections do.",
	}}}
	a, _ := newAssistant(t, fb)

	replies := say(t, a, "Book a garden table for 4 tomorrow at 7pm, I'm Asha, asha@example.com", "option 2")

	require.Len(t, replies[0].Options, 2)
	assert.Contains(t, replies[0].Reply, "1. Lake View, table L1+L2 (4 seats)")
	assert.Contains(t, replies[0].Reply, "2. Garden View, table G1 (4 seats)")
	assert.Equal(t, "garden", fb.books[0].Section)

	require.Len(t, fb.commits, 1)
	assert.Equal(t, []uint64{5}, fb.commits[0].TableIDs)
	assert.Equal(t, "19:00", fb.commits[0].Time)
	assert.Equal(t, "Asha", fb.commits[0].Contact.Name)
	assert.True(t, replies[1].Done)
	assert.Contains(t, replies[1].Reply, "Garden View")
}

func TestAssistantOptionOutOfRange(t *testing.T) {
	fb := &fakeBooker{bookOut: []service.Outcome{{Kind: service.OutcomeSuggestions, Options: lakeOptions(), Message: "These sections can seat 4."}}}
	a, _ := newAssistant(t, fb)

	replies := say(t, a, "table for 4 tomorrow at 7pm, I'm Asha, asha@example.com", "9")
	assert.Contains(t, replies[1].Reply, "between 1 and 2")
	assert.Empty(t, fb.commits)
}

func TestAssistantReplansWhenChoiceIsTaken(t *testing.T) {
	fb := &fakeBooker{
		bookOut: []service.Outcome{
			{Kind: service.OutcomeSuggestions, Options: lakeOptions(), Message: "These sections can seat 4."},
			confirmedOutcome,
		},
		commitErr: service.ErrConflict,
	}
	a, _ := newAssistant(t, fb)

	replies := say(t, a, "table for 4 tomorrow at 7pm in the garden, I'm Asha, asha@example.com", "1")
	assert.Contains(t, replies[1].Reply, "just taken")
	assert.True(t, replies[1].Done)
	require.Len(t, fb.books, 2)
	assert.Empty(t, fb.books[1].Section)
}

func TestAssistantFullyBookedAsksForAnotherTime(t *testing.T) {
	fb := &fakeBooker{bookOut: []service.Outcome{
		{Kind: service.OutcomeSuggestions, Message: "Sorry, we are fully booked for 4 at Thu 2 Jul 20:00."},
		confirmedOutcome,
	}}
	a, _ := newAssistant(t, fb)

	replies := say(t, a, "table for 4 tomorrow at 8pm, I'm Asha, asha@example.com", "9")
	assert.Contains(t, replies[0].Reply, "Would another time work?")
	require.Len(t, fb.books, 2)
	assert.Equal(t, "21:00", fb.books[1].Time)
	assert.True(t, replies[1].Done)
}

func TestAssistantRejectsPastTimes(t *testing.T) {
	fb := &fakeBooker{bookOut: []service.Outcome{confirmedOutcome}}
	a, _ := newAssistant(t, fb)

	replies := say(t, a, "table for 2 today at 10am, I'm Asha, asha@example.com")
	assert.Contains(t, replies[0].Reply, "already passed")
	assert.Empty(t, fb.books)
}

func TestAssistantReportsStoreTrouble(t *testing.T) {
	fb := &fakeBooker{bookErr: fmt.Errorf("%w: dial tcp", service.ErrStoreUnavailable)}
	a, _ := newAssistant(t, fb)

	replies := say(t, a, "table for 2 tomorrow at 8pm, I'm Asha, asha@example.com")
	assert.Contains(t, replies[0].Reply, "having trouble")
}

func TestAssistantRelaysInvalidRequests(t *testing.T) {
	fb := &fakeBooker{bookErr: fmt.Errorf("%w: email looks wrong", service.ErrInvalidRequest)}
	a, _ := newAssistant(t, fb)

	replies := say(t, a, "table for 2 tomorrow at 8pm, I'm Asha, asha@example.com")
	assert.Contains(t, replies[0].Reply, "Sorry, email looks wrong.")
}

func TestAssistantCancelsLastBooking(t *testing.T) {
	fb := &fakeBooker{bookOut: []service.Outcome{confirmedOutcome}}
	a, _ := newAssistant(t, fb)

	replies := say(t, a, "table for 2 tomorrow at 8pm, I'm Asha, asha@example.com", "actually please cancel it")
	assert.Equal(t, []string{testRef}, fb.cancels)
	assert.True(t, replies[1].Done)
	assert.Equal(t, model.StatusCancelled, replies[1].Reservation.Status)
}

func TestAssistantCancelAsksForReference(t *testing.T) {
	fb := &fakeBooker{}
	a, _ := newAssistant(t, fb)

	replies := say(t, a, "I need to cancel my reservation", "it is "+testRef)
	assert.Contains(t, replies[0].Reply, "reference")
	assert.Empty(t, replies[0].Reservation)
	assert.Equal(t, []string{testRef}, fb.cancels)
	assert.True(t, replies[1].Done)

	replies = say(t, a, "cancel 00000000-0000-4000-8000-000000000000")
	assert.Contains(t, replies[0].Reply, "couldn't find")
}

func TestAssistantReschedules(t *testing.T) {
	fb := &fakeBooker{
		bookOut: []service.Outcome{confirmedOutcome},
		moveOut: service.Outcome{
			Kind:        service.OutcomeConfirmed,
			Reservation: &model.Reservation{Reference: testRef, Status: model.StatusConfirmed},
			Message:     "Confirmed: 2 guests in Lake View at Thu 2 Jul 21:00, table L1.",
		},
	}
	a, _ := newAssistant(t, fb)

	replies := say(t, a, "table for 2 tomorrow at 8pm, I'm Asha, asha@example.com", "can I reschedule to 9pm?")
	require.Len(t, fb.moves, 1)
	assert.Equal(t, [3]string{testRef, "2026-07-02", "21:00"}, fb.moves[0])
	assert.True(t, replies[1].Done)
	assert.Contains(t, replies[1].Reply, "Moved.")
}

func TestAssistantRescheduleKeepsBookingWhenFull(t *testing.T) {
	fb := &fakeBooker{moveOut: service.Outcome{Kind: service.OutcomeSuggestions, Message: "Lake View has no table for 2 at Thu 2 Jul 21:00, but these sections do."}}
	a, _ := newAssistant(t, fb)

	replies := say(t, a, "please reschedule "+testRef, "tomorrow at 9pm")
	assert.Contains(t, replies[0].Reply, "new date and time")
	require.Len(t, fb.moves, 1)
	assert.Contains(t, replies[1].Reply, "unchanged")
	assert.False(t, replies[1].Done)
}

func TestAssistantAvailabilityQuestion(t *testing.T) {
	fb := &fakeBooker{summary: booking.Summary{Total: 3, Booked: 1, Available: 2}}
	a, _ := newAssistant(t, fb)

	replies := say(t, a, "any tables available tomorrow at 8pm in the garden?")
	require.Len(t, fb.queries, 1)
	assert.Equal(t, service.AvailabilityQuery{Date: "2026-07-02", Time: "20:00", Section: "garden"}, fb.queries[0])
	assert.Equal(t, "2 of 3 tables are free in the garden area. Shall I book one? Tell me how many guests.", replies[0].Reply)
}

func TestAssistantAnswersQuestions(t *testing.T) {
	fb := &fakeBooker{}
	a, _ := newAssistant(t, fb)

	replies := say(t, a, "hello", "what is your address?")
	assert.Contains(t, replies[0].Reply, "Hello!")
	assert.Equal(t, "We are at 12 Lakeside Road.", replies[1].Reply)

	// a question mid booking is answered and the booking resumes
	replies = say(t, a, "table for 4 tomorrow at 8pm", "what is your address?")
	assert.Equal(t, "We are at 12 Lakeside Road. "+questions[awaitContact], replies[1].Reply)
}

type brokenSessions struct{ MemorySessionStore }

func (*brokenSessions) Get(ctx context.Context, id string) (*Session, error) {
	return nil, errors.New("redis: connection refused")
}

func TestAssistantSessionFailure(t *testing.T) {
	a := NewAssistant(&fakeBooker{now: wednesday}, nil, &brokenSessions{}, nil)
	_, err := a.Handle(context.Background(), "abc", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load session")
}

func TestMemorySessionStoreExpires(t *testing.T) {
	ctx := context.Background()
	clock := wednesday
	s := NewMemorySessionStore(time.Minute)
	s.now = func() time.Time { return clock }

	require.NoError(t, s.Save(ctx, &Session{ID: "a", Awaiting: awaitTime}))
	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, awaitTime, got.Awaiting)

	clock = clock.Add(2 * time.Minute)
	got, err = s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.Save(ctx, &Session{ID: "b"}))
	require.NoError(t, s.Delete(ctx, "b"))
	got, err = s.Get(ctx, "b")
	require.NoError(t, err)
	assert.Nil(t, got)
}
