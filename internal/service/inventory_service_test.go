package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/table-reservation/internal/config"
	"github.com/iliyamo/table-reservation/internal/model"
	"github.com/iliyamo/table-reservation/internal/repository"
)

const testLayout = `
sections:
  - name: Lake View
    priority: 1
    can_combine_tables: true
    combine_limits: {2: 2}
    tables:
      - {label: "1", capacity: 2}
      - {label: "2", capacity: 2}
  - name: Patio
    priority: 2
    tables:
      - {label: "P1", capacity: 4}
retired_sections: [Rooftop]
`

func TestSeedSkipsRetiredAndPurgesThem(t *testing.T) {
	store := newMemStore()
	inv := NewInventoryService(store, zap.NewNop())
	layout, err := config.ParseLayout([]byte(testLayout))
	require.NoError(t, err)

	report, err := inv.Seed(context.Background(), layout, []string{"patio", "Rooftop"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Rooftop", "patio"}, report.Retired)
	require.Len(t, store.purges, 1)
	assert.Equal(t, report.Retired, store.purges[0])
	assert.Equal(t, []string{"Lake View"}, store.seeded, "retired sections are never recreated")
	assert.Equal(t, 1, report.Sections)
	assert.Equal(t, 2, report.Tables)
	assert.Zero(t, report.Purged.Sections, "nothing in the store matched")
}

func TestSeedRejectsInvalidLayout(t *testing.T) {
	inv := NewInventoryService(newMemStore(), zap.NewNop())
	layout := &config.Layout{Sections: []config.SectionSpec{
		{Name: "A", Priority: 1},
		{Name: "B", Priority: 1},
	}}
	_, err := inv.Seed(context.Background(), layout, nil)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = inv.Seed(context.Background(), nil, nil)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestPurge(t *testing.T) {
	store := newMemStore()
	inv := NewInventoryService(store, zap.NewNop())
	ctx := context.Background()

	_, err := inv.Purge(ctx, []string{" ", ""}, false)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	res, err := inv.Purge(ctx, []string{" Garden View "}, false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Sections)
	assert.Equal(t, []string{"Garden View"}, store.purges[0])

	res, err = inv.Purge(ctx, []string{"Garden View"}, false)
	require.NoError(t, err)
	assert.Zero(t, res.Sections, "purge is idempotent")
}

func TestSectionsHidesInactive(t *testing.T) {
	inv := NewInventoryService(newMemStore(), zap.NewNop())

	views, err := inv.Sections(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "Lake View", views[0].Name)
	assert.Len(t, views[0].Tables, 4)

	views, err = inv.Sections(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, views, 3)
	assert.Equal(t, "Rooftop", views[2].Name)
}

func TestAddTable(t *testing.T) {
	store := newMemStore()
	inv := NewInventoryService(store, zap.NewNop())
	ctx := context.Background()

	tbl, err := inv.AddTable(ctx, "garden view", "G3", 6)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), tbl.SectionID)
	assert.NotZero(t, tbl.ID)

	_, err = inv.AddTable(ctx, "garden view", "G3", 6)
	assert.ErrorIs(t, err, ErrInvalidRequest, "duplicate label")

	_, err = inv.AddTable(ctx, "Rooftop", "R2", 4)
	assert.ErrorIs(t, err, ErrInvalidRequest, "retired section")

	_, err = inv.AddTable(ctx, "Cellar", "C1", 4)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = inv.AddTable(ctx, "garden view", "G4", 0)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestSetTableActive(t *testing.T) {
	inv := NewInventoryService(newMemStore(), zap.NewNop())

	assert.NoError(t, inv.SetTableActive(context.Background(), 5, false))
	assert.ErrorIs(t, inv.SetTableActive(context.Background(), 99, false), ErrNotFound)
	assert.ErrorIs(t, inv.SetTableActive(context.Background(), 0, true), ErrInvalidRequest)
}

func TestReservationsFilterValidation(t *testing.T) {
	inv := NewInventoryService(newMemStore(), zap.NewNop())
	from := time.Date(2026, 7, 14, 0, 0, 0, 0, time.UTC)

	_, err := inv.Reservations(context.Background(), repository.ReservationFilter{From: from, To: from})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = inv.Reservations(context.Background(), repository.ReservationFilter{Status: "lost"})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = inv.Reservations(context.Background(), repository.ReservationFilter{From: from, To: from.Add(24 * time.Hour)})
	assert.NoError(t, err)
}

type fakeStaff struct {
	count   int
	created []string
	err     error
}

func (f *fakeStaff) Count(ctx context.Context) (int, error) { return f.count, f.err }

func (f *fakeStaff) Create(ctx context.Context, email, password, role string, cost int) (uint64, error) {
	f.created = append(f.created, email+":"+role)
	f.count++
	return uint64(f.count), nil
}

func TestEnsureAdmin(t *testing.T) {
	ctx := context.Background()

	staff := &fakeStaff{}
	created, err := EnsureAdmin(ctx, staff, " Owner@Example.com ", "s3cret-pass", 4, zap.NewNop())
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, []string{"owner@example.com:ADMIN"}, staff.created)

	created, err = EnsureAdmin(ctx, staff, "owner@example.com", "s3cret-pass", 4, nil)
	require.NoError(t, err)
	assert.False(t, created, "only the first account is bootstrapped")

	created, err = EnsureAdmin(ctx, &fakeStaff{}, "", "", 4, nil)
	require.NoError(t, err)
	assert.False(t, created)

	_, err = EnsureAdmin(ctx, &fakeStaff{err: errors.New("db down")}, "a@b.c", "s3cret-pass", 4, nil)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestSeedMenu(t *testing.T) {
	store := newMemStore()
	inv := NewInventoryService(store, zap.NewNop())
	layout, err := config.ParseLayout([]byte(testLayout + `
menu:
  - {name: Lobster Risotto, price: 1500, special: true}
  - {name: Mango Kulfi, price: 300}
`))
	require.NoError(t, err)

	report, err := inv.Seed(context.Background(), layout, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Menu)
	require.Len(t, store.menu, 3, "existing dishes are refreshed by name")
	assert.InDelta(t, 1500.0, store.menu[0].Price, 0.001)
	assert.Equal(t, "Mango Kulfi", store.menu[2].Name)
}

func TestStats(t *testing.T) {
	store := newMemStore()
	inv := NewInventoryService(store, zap.NewNop())
	loc := time.FixedZone("IST", 5*3600+1800)
	// Tuesday 14 July 2026, evening in the restaurant
	inv.now = func() time.Time { return time.Date(2026, 7, 14, 20, 0, 0, 0, loc) }

	tests := []struct {
		name  string
		at    time.Time
		party int
		week  bool
		month bool
	}{
		{"today", time.Date(2026, 7, 14, 19, 0, 0, 0, loc), 4, true, true},
		{"six days ago", time.Date(2026, 7, 8, 0, 0, 0, 0, loc), 2, true, true},
		{"seven days ago", time.Date(2026, 7, 7, 23, 59, 0, 0, loc), 3, false, true},
		{"later this month", time.Date(2026, 7, 30, 19, 0, 0, 0, loc), 6, false, true},
		{"last month", time.Date(2026, 6, 30, 19, 0, 0, 0, loc), 5, false, false},
		{"next month", time.Date(2026, 8, 1, 0, 0, 0, 0, loc), 7, false, false},
	}
	wantWeek, wantMonth, wantPeopleWeek, wantPeopleMonth := 0, 0, 0, 0
	for _, tt := range tests {
		store.insert(tt.name, tt.party, tt.at, 1)
		if tt.week {
			wantWeek++
			wantPeopleWeek += tt.party
		}
		if tt.month {
			wantMonth++
			wantPeopleMonth += tt.party
		}
	}
	store.insert("cancelled", 9, time.Date(2026, 7, 14, 13, 0, 0, 0, loc), 2)
	store.reservations[len(store.reservations)-1].Status = model.StatusCancelled

	st, err := inv.Stats(context.Background(), loc)
	require.NoError(t, err)
	assert.Equal(t, wantWeek, st.BookingsWeek)
	assert.Equal(t, wantPeopleWeek, st.PeopleWeek)
	assert.Equal(t, wantMonth, st.BookingsMonth)
	assert.Equal(t, wantPeopleMonth, st.PeopleMonth)
	assert.True(t, time.Date(2026, 7, 8, 0, 0, 0, 0, loc).Equal(st.Week.Start))
	assert.True(t, time.Date(2026, 8, 1, 0, 0, 0, 0, loc).Equal(st.Month.End))

	store.fail = errors.New("db down")
	_, err = inv.Stats(context.Background(), loc)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}
