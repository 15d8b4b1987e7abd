package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"icpep-backend/internal/logger"
	"icpep-backend/internal/models"
	"icpep-backend/internal/sse"
)

type MockDBLayer struct {
	mock.Mock
}

func (m *MockDBLayer) Insert(ctx context.Context, n *models.Notification) error {
	args := m.Called(n)
	if args.Error(0) == nil {
		n.ID = primitive.NewObjectID()
	}
	return args.Error(0)
}

func (m *MockDBLayer) Recent(ctx context.Context, limit int64, includeStaff bool) ([]models.Notification, error) {
	args := m.Called(limit, includeStaff)
	return args.Get(0).([]models.Notification), args.Error(1)
}

func (m *MockDBLayer) Count(ctx context.Context) (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) PublishJSON(ctx context.Context, key string, value interface{}) error {
	return m.Called(key, value).Error(0)
}

func newService(db DBLayer, hub *sse.Hub) *Service {
	s := NewService(db, hub, logger.Discard())
	s.Now = func() time.Time { return time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC) }
	return s
}

func TestDeliverStoresAndBroadcasts(t *testing.T) {
	db := new(MockDBLayer)
	db.On("Insert", mock.AnythingOfType("*models.Notification")).Return(nil)
	hub := sse.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stream := hub.Subscribe(ctx)

	s := newService(db, hub)
	n, err := s.Deliver(context.Background(), models.DomainEvent{
		Kind:  models.KindEventCreated,
		RefID: "e1",
		Title: "New event: Hackathon",
	})
	require.NoError(t, err)
	assert.False(t, n.ID.IsZero())
	assert.Equal(t, s.Now(), n.CreatedAt)

	got := <-stream
	assert.Equal(t, "New event: Hackathon", got.Title)
	assert.Equal(t, models.AudiencePublic, got.Audience)
	db.AssertExpectations(t)
}

func TestDeliverKeepsMembershipOffStream(t *testing.T) {
	db := new(MockDBLayer)
	db.On("Insert", mock.AnythingOfType("*models.Notification")).Return(nil)
	hub := sse.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stream := hub.Subscribe(ctx)

	n, err := newService(db, hub).Deliver(context.Background(), models.DomainEvent{
		Kind:    models.KindMembershipRegistered,
		RefID:   "m1",
		Title:   "New membership application",
		Message: "Ada Lovelace (BSCpE) applied as a regular member",
	})
	require.NoError(t, err)
	assert.Equal(t, models.AudienceStaff, n.Audience)

	select {
	case got := <-stream:
		t.Fatalf("membership notification reached the public stream: %q", got.Title)
	default:
	}
	db.AssertExpectations(t)
}

func TestRecentPassesStaffFlag(t *testing.T) {
	db := new(MockDBLayer)
	db.On("Recent", int64(10), true).Return([]models.Notification{{Audience: models.AudienceStaff}}, nil)

	items, err := newService(db, nil).Recent(context.Background(), 10, true)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	db.AssertExpectations(t)
}

func TestDeliverRejectsEmptyEvent(t *testing.T) {
	s := newService(new(MockDBLayer), nil)
	_, err := s.Deliver(context.Background(), models.DomainEvent{Kind: "x"})
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestDeliverPropagatesStoreError(t *testing.T) {
	db := new(MockDBLayer)
	db.On("Insert", mock.Anything).Return(errors.New("down"))
	_, err := newService(db, nil).Deliver(context.Background(), models.DomainEvent{Kind: "k", Title: "t"})
	assert.Error(t, err)
}

func TestRecentClampsLimit(t *testing.T) {
	db := new(MockDBLayer)
	db.On("Recent", int64(20), false).Return([]models.Notification{}, nil).Twice()
	s := newService(db, nil)

	_, err := s.Recent(context.Background(), 0, false)
	require.NoError(t, err)
	_, err = s.Recent(context.Background(), 1000, false)
	require.NoError(t, err)
	db.AssertExpectations(t)
}

func TestKafkaPublisherKeysByRefID(t *testing.T) {
	p := new(MockProducer)
	ev := models.DomainEvent{Kind: models.KindMembershipApproved, RefID: "m1", Title: "t"}
	p.On("PublishJSON", "m1", ev).Return(nil)
	require.NoError(t, NewKafkaPublisher(p).Publish(context.Background(), ev))

	bcast := models.DomainEvent{Kind: models.KindBroadcast, Title: "t"}
	p.On("PublishJSON", models.KindBroadcast, bcast).Return(errors.New("broker down"))
	assert.Error(t, NewKafkaPublisher(p).Publish(context.Background(), bcast))
}

func TestBroadcastValidatesAndPublishes(t *testing.T) {
	db := new(MockDBLayer)
	db.On("Insert", mock.Anything).Return(nil)
	s := newService(db, nil)
	direct := NewDirectPublisher(s)

	err := s.Broadcast(context.Background(), direct, models.BroadcastRequest{Title: "", Message: "x"})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	err = s.Broadcast(context.Background(), direct, models.BroadcastRequest{Title: "Reminder", Message: "Dues deadline"})
	require.NoError(t, err)
	db.AssertNumberOfCalls(t, "Insert", 1)
}

func TestWorkerHandleDecodesAndDelivers(t *testing.T) {
	db := new(MockDBLayer)
	db.On("Insert", mock.Anything).Return(nil)
	w := NewWorker(nil, newService(db, nil))

	body, _ := json.Marshal(models.DomainEvent{Kind: models.KindAnnouncementPublished, Title: "Hello"})
	require.NoError(t, w.Handle(context.Background(), kafka.Message{Value: body}))
	assert.Error(t, w.Handle(context.Background(), kafka.Message{Value: []byte("{")}))
	db.AssertNumberOfCalls(t, "Insert", 1)
}

func TestNotifySwallowsErrors(t *testing.T) {
	p := new(MockProducer)
	p.On("PublishJSON", mock.Anything, mock.Anything).Return(errors.New("down"))
	assert.NotPanics(t, func() {
		Notify(context.Background(), NewKafkaPublisher(p), logger.Discard(), models.DomainEvent{Kind: "k"})
		Notify(context.Background(), nil, logger.Discard(), models.DomainEvent{Kind: "k"})
	})
}
