package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-ticket-booking/internal/model"
	"github.com/iliyamo/event-ticket-booking/internal/repository"
)

func newContext(t *testing.T) echo.Context {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec)
}

func TestGetUserIDAcceptsJWTFloatClaims(t *testing.T) {
	c := newContext(t)
	c.Set("user_id", float64(17))

	id, err := getUserID(c)
	require.NoError(t, err)
	assert.Equal(t, uint64(17), id)
}

func TestGetUserIDRejectsMissingValue(t *testing.T) {
	c := newContext(t)

	_, err := getUserID(c)
	assert.Error(t, err)
}

func TestIsAdmin(t *testing.T) {
	c := newContext(t)
	assert.False(t, isAdmin(c), "no role set")

	c.Set("role", model.RoleUser)
	assert.False(t, isAdmin(c))

	c.Set("role", model.RoleAdmin)
	assert.True(t, isAdmin(c))
}

func TestParseIDParam(t *testing.T) {
	c := newContext(t)
	c.SetParamNames("id")
	c.SetParamValues("42")

	id, err := parseIDParam(c, "id")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)

	for _, bad := range []string{"0", "-1", "abc", ""} {
		c.SetParamValues(bad)
		_, err := parseIDParam(c, "id")
		assert.Error(t, err, "value %q", bad)
	}
}

func TestValidateSeatRequests(t *testing.T) {
	assert.Error(t, validateSeatRequests(nil), "empty request")
	assert.Error(t, validateSeatRequests([]seatRequest{{TicketTypeID: 0, Quantity: 2}}))
	assert.Error(t, validateSeatRequests([]seatRequest{{TicketTypeID: 1, Quantity: 0}}))
	assert.Error(t, validateSeatRequests([]seatRequest{{TicketTypeID: 1, Quantity: -3}}))
	assert.Error(t, validateSeatRequests([]seatRequest{
		{TicketTypeID: 1, Quantity: 2},
		{TicketTypeID: 2, Quantity: 0},
	}), "one bad line fails the whole request")

	assert.NoError(t, validateSeatRequests([]seatRequest{{TicketTypeID: 1, Quantity: 2}}))
	assert.NoError(t, validateSeatRequests([]seatRequest{
		{TicketTypeID: 1, Quantity: 2},
		{TicketTypeID: 1, Quantity: 1},
	}), "duplicate ticket types add up")
}

func TestMergeSeatRequests(t *testing.T) {
	merged := mergeSeatRequests([]seatRequest{
		{TicketTypeID: 2, Quantity: 1},
		{TicketTypeID: 1, Quantity: 2},
		{TicketTypeID: 2, Quantity: 3},
	})

	require.Len(t, merged, 2)
	assert.Equal(t, seatRequest{TicketTypeID: 2, Quantity: 4}, merged[0], "quantities add up, first-seen order kept")
	assert.Equal(t, seatRequest{TicketTypeID: 1, Quantity: 2}, merged[1])
}

// fakeSeatStore stands in for SeatRepo in allocation tests. It hands out
// the configured seat IDs and records every call so tests can assert how
// the loop drove it.
type fakeSeatStore struct {
	available map[uint64][]uint64
	selects   map[uint64]int
	flips     [][]uint64
}

func (f *fakeSeatStore) SelectAvailableForUpdateTx(_ context.Context, _ *sql.Tx, ticketTypeID uint64, limit int) ([]uint64, error) {
	if f.selects == nil {
		f.selects = make(map[uint64]int)
	}
	f.selects[ticketTypeID]++
	ids := f.available[ticketTypeID]
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (f *fakeSeatStore) SetAvailabilityTx(_ context.Context, _ *sql.Tx, seatIDs []uint64, available bool) error {
	f.flips = append(f.flips, append([]uint64(nil), seatIDs...))
	return nil
}

func TestAllocateSeatsMergesDuplicateTypes(t *testing.T) {
	store := &fakeSeatStore{available: map[uint64][]uint64{1: {5, 6}}}

	items, seatIDs, err := allocateSeats(context.Background(), nil, store, 9, []seatRequest{
		{TicketTypeID: 1, Quantity: 1},
		{TicketTypeID: 1, Quantity: 1},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, store.selects[1], "one locking read per ticket type")
	assert.Equal(t, []uint64{5, 6}, seatIDs, "both quantities satisfied from distinct seats")
	require.Len(t, items, 2)
	assert.NotEqual(t, items[0].SeatID, items[1].SeatID)
	for _, it := range items {
		assert.Equal(t, uint64(9), it.BookingID)
		assert.Equal(t, uint64(1), it.TicketTypeID)
	}
	require.Len(t, store.flips, 1)
	assert.Equal(t, []uint64{5, 6}, store.flips[0])
}

func TestAllocateSeatsAllOrNothing(t *testing.T) {
	store := &fakeSeatStore{available: map[uint64][]uint64{1: {1, 2}}}

	items, seatIDs, err := allocateSeats(context.Background(), nil, store, 9, []seatRequest{
		{TicketTypeID: 1, Quantity: 2},
		{TicketTypeID: 2, Quantity: 1},
	})

	var short *repository.InsufficientSeatsError
	require.ErrorAs(t, err, &short)
	assert.Equal(t, uint64(2), short.TicketTypeID, "error names the category that ran short")
	assert.Equal(t, 1, short.Requested)
	assert.Equal(t, 0, short.Available)

	assert.Nil(t, items)
	assert.Nil(t, seatIDs)
	assert.Empty(t, store.flips, "no availability flag written when any category is short")
}

func TestStatusMessage(t *testing.T) {
	assert.Equal(t, "booking confirmed", statusMessage(model.StatusPaid))
	assert.Equal(t, "booking canceled and seats released", statusMessage(model.StatusCanceled))
	assert.Equal(t, "booking is pending", statusMessage(model.StatusPending))
}

func TestValidateName(t *testing.T) {
	name, err := validateName("  VIP  ")
	require.NoError(t, err)
	assert.Equal(t, "VIP", name, "surrounding whitespace is trimmed")

	_, err = validateName("   ")
	assert.Error(t, err)

	long := make([]byte, maxTicketTypeName+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err = validateName(string(long))
	assert.Error(t, err)

	edge := string(long[:maxTicketTypeName])
	name, err = validateName(edge)
	require.NoError(t, err)
	assert.Len(t, name, maxTicketTypeName)
}
