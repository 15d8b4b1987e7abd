package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icpep-backend/internal/logger"
	"icpep-backend/internal/models"
	"icpep-backend/internal/mongodb/mongotest"
)

func TestEventStore(t *testing.T) {
	store := mongotest.Start(t)
	d := New(store, logger.Discard())
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	upcoming := &models.Event{Title: "upcoming", StartDate: now.Add(time.Hour), EndDate: now.Add(2 * time.Hour)}
	ongoing := &models.Event{Title: "ongoing", StartDate: now.Add(-time.Hour), EndDate: now.Add(time.Hour)}
	ended := &models.Event{Title: "ended", StartDate: now.Add(-3 * time.Hour), EndDate: now.Add(-2 * time.Hour)}
	for _, e := range []*models.Event{upcoming, ongoing, ended} {
		require.NoError(t, d.InsertEvent(ctx, e))
	}

	for status, want := range map[models.EventStatus]string{
		models.EventUpcoming: "upcoming",
		models.EventOngoing:  "ongoing",
		models.EventEnded:    "ended",
	} {
		events, err := d.ListEvents(ctx, status, now)
		require.NoError(t, err)
		require.Len(t, events, 1, status)
		assert.Equal(t, want, events[0].Title)
		assert.Equal(t, status, events[0].StatusAt(now))

		n, err := d.CountEvents(ctx, status, now)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	}

	r := &models.RSVP{EventID: upcoming.ID, Email: "ada@cit.edu", Status: models.RSVPGoing, CreatedAt: now}
	require.NoError(t, d.InsertRSVP(ctx, r))
	require.NoError(t, d.AdjustRSVPCount(ctx, upcoming.ID, 1))

	dup := &models.RSVP{EventID: upcoming.ID, Email: "ada@cit.edu", Status: models.RSVPGoing}
	assert.ErrorIs(t, d.InsertRSVP(ctx, dup), models.ErrConflict)

	found, err := d.FindRSVPByEmail(ctx, upcoming.ID, "ada@cit.edu")
	require.NoError(t, err)
	assert.Equal(t, r.ID, found.ID)

	e, err := d.FindEvent(ctx, upcoming.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, e.RSVPCount)

	active, err := d.CountActiveRSVPs(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), active)

	extra := &models.RSVP{EventID: upcoming.ID, Email: "grace@cit.edu", Status: models.RSVPGoing, CreatedAt: now}
	require.NoError(t, d.InsertRSVP(ctx, extra))
	require.NoError(t, d.DeleteRSVP(ctx, extra.ID))
	assert.ErrorIs(t, d.DeleteRSVP(ctx, extra.ID), models.ErrNotFound)

	require.NoError(t, d.DeleteEvent(ctx, upcoming.ID))
	rsvps, err := d.ListRSVPs(ctx, upcoming.ID)
	require.NoError(t, err)
	assert.Empty(t, rsvps)
	_, err = d.FindRSVP(ctx, r.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}
