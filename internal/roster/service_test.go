package roster

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"icpep-backend/internal/models"
)

type MockOfficerDB struct {
	mock.Mock
}

func (m *MockOfficerDB) InsertOfficer(ctx context.Context, o *models.Officer) error {
	return m.Called(o).Error(0)
}

func (m *MockOfficerDB) FindOfficer(ctx context.Context, id primitive.ObjectID) (*models.Officer, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Officer), args.Error(1)
}

func (m *MockOfficerDB) ListOfficers(ctx context.Context, term string, activeOnly bool) ([]models.Officer, error) {
	args := m.Called(term, activeOnly)
	return args.Get(0).([]models.Officer), args.Error(1)
}

func (m *MockOfficerDB) UpdateOfficer(ctx context.Context, o *models.Officer) error {
	return m.Called(o).Error(0)
}

func (m *MockOfficerDB) DeleteOfficer(ctx context.Context, id primitive.ObjectID) error {
	return m.Called(id).Error(0)
}

type MockFacultyDB struct {
	mock.Mock
}

func (m *MockFacultyDB) InsertFaculty(ctx context.Context, f *models.FacultyProfile) error {
	return m.Called(f).Error(0)
}

func (m *MockFacultyDB) FindFaculty(ctx context.Context, id primitive.ObjectID) (*models.FacultyProfile, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FacultyProfile), args.Error(1)
}

func (m *MockFacultyDB) ListFaculty(ctx context.Context) ([]models.FacultyProfile, error) {
	args := m.Called()
	return args.Get(0).([]models.FacultyProfile), args.Error(1)
}

func (m *MockFacultyDB) UpdateFaculty(ctx context.Context, f *models.FacultyProfile) error {
	return m.Called(f).Error(0)
}

func (m *MockFacultyDB) DeleteFaculty(ctx context.Context, id primitive.ObjectID) error {
	return m.Called(id).Error(0)
}

func TestCreateOfficerDefaultsActive(t *testing.T) {
	officers := new(MockOfficerDB)
	officers.On("InsertOfficer", mock.MatchedBy(func(o *models.Officer) bool {
		return o.Active && o.Email == "pres@cit.edu" && o.Name == "Ada"
	})).Return(nil)
	svc := NewService(officers, new(MockFacultyDB))

	o, err := svc.CreateOfficer(context.Background(), models.OfficerRequest{
		Name: " Ada ", Position: "President", Term: "2025-2026", Email: "PRES@cit.edu",
	})
	require.NoError(t, err)
	assert.True(t, o.Active)
	officers.AssertExpectations(t)
}

func TestCreateOfficerRejectsBadTerm(t *testing.T) {
	officers := new(MockOfficerDB)
	svc := NewService(officers, new(MockFacultyDB))

	_, err := svc.CreateOfficer(context.Background(), models.OfficerRequest{Name: "A", Position: "P", Term: "2025"})
	assert.ErrorIs(t, err, models.ErrInvalidInput)
	officers.AssertNotCalled(t, "InsertOfficer", mock.Anything)
}

func TestUpdateOfficerCanDeactivate(t *testing.T) {
	id := primitive.NewObjectID()
	officers := new(MockOfficerDB)
	officers.On("FindOfficer", id).Return(&models.Officer{ID: id, Name: "Old", Active: true}, nil)
	officers.On("UpdateOfficer", mock.MatchedBy(func(o *models.Officer) bool { return !o.Active && o.ID == id })).Return(nil)
	svc := NewService(officers, new(MockFacultyDB))

	inactive := false
	o, err := svc.UpdateOfficer(context.Background(), id.Hex(), models.OfficerRequest{
		Name: "New", Position: "Treasurer", Term: "2024-2025", Active: &inactive,
	})
	require.NoError(t, err)
	assert.Equal(t, "New", o.Name)
	officers.AssertExpectations(t)
}

func TestGetOfficerInvalidID(t *testing.T) {
	svc := NewService(new(MockOfficerDB), new(MockFacultyDB))
	_, err := svc.GetOfficer(context.Background(), "nope")
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestCreateFacultyValidatesRole(t *testing.T) {
	faculty := new(MockFacultyDB)
	svc := NewService(new(MockOfficerDB), faculty)

	_, err := svc.CreateFaculty(context.Background(), models.FacultyRequest{Name: "Dr. B", Department: "CpE", Role: "dean"})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	faculty.On("InsertFaculty", mock.Anything).Return(nil)
	f, err := svc.CreateFaculty(context.Background(), models.FacultyRequest{Name: "Dr. B", Department: "CpE", Role: "adviser"})
	require.NoError(t, err)
	assert.Equal(t, "adviser", f.Role)
}

func TestDeleteFacultyNotFound(t *testing.T) {
	id := primitive.NewObjectID()
	faculty := new(MockFacultyDB)
	faculty.On("DeleteFaculty", id).Return(models.ErrNotFound)
	svc := NewService(new(MockOfficerDB), faculty)

	assert.ErrorIs(t, svc.DeleteFaculty(context.Background(), id.Hex()), models.ErrNotFound)
}
