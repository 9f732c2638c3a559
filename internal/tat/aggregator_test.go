package tat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	stderrors "bgverify-jobs/internal/common/errors"
	"bgverify-jobs/internal/common/logger"
	"bgverify-jobs/internal/models"
)

// ==========================
// Mock Source Implementation
// ==========================

type MockSource struct {
	mock.Mock
}

func (m *MockSource) PendingApplications(ctx context.Context) ([]models.PendingApplication, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PendingApplication), args.Error(1)
}

func (m *MockSource) Holidays(ctx context.Context) ([]models.Holiday, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Holiday), args.Error(1)
}

func (m *MockSource) ActiveWeekendConfig(ctx context.Context) (*models.WeekendConfig, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WeekendConfig), args.Error(1)
}

// ==========================
// Test Helpers
// ==========================

var testNow = date(2024, time.February, 1) // a Thursday

func pendingRow(appID, custID, branchID, tatDays string, createdAt time.Time) models.PendingApplication {
	return models.PendingApplication{
		ApplicationID:   appID,
		ApplicationName: "Verification " + appID,
		CreatedAt:       createdAt,
		Customer: models.Customer{
			ID:       custID,
			Name:     "Customer " + custID,
			Emails:   []string{custID + "@example.com"},
			UniqueID: "U-" + custID,
		},
		Branch: models.Branch{
			ID:         branchID,
			Name:       "Branch " + branchID,
			Email:      branchID + "@example.com",
			CustomerID: custID,
		},
		TATDays: tatDays,
	}
}

func newTestEngine(t *testing.T, source Source) *Engine {
	return NewEngine(source, logger.NewTestLogger(t)).WithNow(func() time.Time { return testNow })
}

func sourceReturning(rows []models.PendingApplication) *MockSource {
	source := new(MockSource)
	source.On("PendingApplications", mock.Anything).Return(rows, nil)
	source.On("Holidays", mock.Anything).Return([]models.Holiday{}, nil)
	source.On("ActiveWeekendConfig", mock.Anything).
		Return(&models.WeekendConfig{ID: "cfg-1", Days: []string{"saturday", "sunday"}}, nil)
	return source
}

// ==========================
// Core Functionality Tests
// ==========================

func TestEngine_ComputeDelayedApplications(t *testing.T) {
	rows := []models.PendingApplication{
		pendingRow("A1", "C1", "B1", "5", date(2024, time.January, 1)),   // 18 days out
		pendingRow("A2", "C1", "B2", "5", date(2024, time.January, 29)),  // not due yet
		pendingRow("A3", "C2", "B3", "10", date(2024, time.January, 15)), // 3 days out
		pendingRow("A7", "C1", "B1", "5", date(2024, time.January, 8)),   // 13 days out
	}

	engine := newTestEngine(t, sourceReturning(rows))

	h, err := engine.ComputeDelayedApplications(context.Background())
	require.NoError(t, err)
	require.NotNil(t, h)

	customers, branches, applications := h.Counts()
	assert.Equal(t, 2, customers)
	assert.Equal(t, 2, branches)
	assert.Equal(t, 3, applications)

	// Insertion order from the source rows: C1 before C2.
	require.Len(t, h.Customers, 2)
	c1, c2 := h.Customers[0], h.Customers[1]
	assert.Equal(t, "C1", c1.Customer.ID)
	assert.Equal(t, 5, c1.TATDays)
	assert.Equal(t, "C2", c2.Customer.ID)

	// B2 had no delayed applications and is pruned entirely.
	require.Len(t, c1.Branches, 1)
	b1 := c1.Branches[0]
	assert.Equal(t, "B1", b1.Branch.ID)
	require.Len(t, b1.Applications, 2)
	assert.Equal(t, "A1", b1.Applications[0].ID)
	assert.Equal(t, 18, b1.Applications[0].DaysOutOfTAT)
	assert.Equal(t, "A7", b1.Applications[1].ID)
	assert.Equal(t, 13, b1.Applications[1].DaysOutOfTAT)

	require.Len(t, c2.Branches, 1)
	require.Len(t, c2.Branches[0].Applications, 1)
	assert.Equal(t, 3, c2.Branches[0].Applications[0].DaysOutOfTAT)
}

func TestEngine_OutOfRangeTATDaysExcluded(t *testing.T) {
	rows := []models.PendingApplication{
		pendingRow("A1", "C1", "B1", "0", date(2024, time.January, 1)),
		pendingRow("A2", "C2", "B2", "400", date(2024, time.January, 1)),
		pendingRow("A3", "C3", "B3", "not-a-number", date(2024, time.January, 1)),
		pendingRow("A4", "C4", "B4", "", date(2024, time.January, 1)),
	}

	engine := newTestEngine(t, sourceReturning(rows))

	h, err := engine.ComputeDelayedApplications(context.Background())
	require.NoError(t, err)
	assert.True(t, h.Empty())
}

func TestEngine_BoundaryTATDaysIncluded(t *testing.T) {
	rows := []models.PendingApplication{
		pendingRow("A1", "C1", "B1", "1", date(2024, time.January, 1)),
		pendingRow("A2", "C2", "B2", "365", date(2024, time.January, 1)),
	}

	engine := newTestEngine(t, sourceReturning(rows))

	h, err := engine.ComputeDelayedApplications(context.Background())
	require.NoError(t, err)

	// tat=1 is long overdue; tat=365 is far from due. Only C1 survives.
	require.Len(t, h.Customers, 1)
	assert.Equal(t, "C1", h.Customers[0].Customer.ID)
}

func TestEngine_AllOnTimeYieldsEmptyHierarchy(t *testing.T) {
	rows := []models.PendingApplication{
		pendingRow("A1", "C1", "B1", "30", date(2024, time.January, 29)),
	}

	engine := newTestEngine(t, sourceReturning(rows))

	h, err := engine.ComputeDelayedApplications(context.Background())
	require.NoError(t, err)
	assert.True(t, h.Empty())
	assert.Equal(t, 0, h.MaxDaysOutOfTAT())
}

func TestEngine_Idempotent(t *testing.T) {
	rows := []models.PendingApplication{
		pendingRow("A1", "C1", "B1", "5", date(2024, time.January, 1)),
		pendingRow("A3", "C2", "B3", "10", date(2024, time.January, 15)),
	}

	engine := newTestEngine(t, sourceReturning(rows))

	first, err := engine.ComputeDelayedApplications(context.Background())
	require.NoError(t, err)
	second, err := engine.ComputeDelayedApplications(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestEngine_NoActiveWeekendConfig(t *testing.T) {
	source := new(MockSource)
	source.On("PendingApplications", mock.Anything).Return([]models.PendingApplication{
		pendingRow("A1", "C1", "B1", "5", date(2024, time.January, 1)),
	}, nil)
	source.On("Holidays", mock.Anything).Return([]models.Holiday{}, nil)
	source.On("ActiveWeekendConfig", mock.Anything).Return(nil, nil)

	engine := newTestEngine(t, source)

	h, err := engine.ComputeDelayedApplications(context.Background())
	require.NoError(t, err)

	// Every calendar day counts: due Jan 6, 26 days elapsed to Feb 1.
	require.Len(t, h.Customers, 1)
	assert.Equal(t, 26, h.Customers[0].Branches[0].Applications[0].DaysOutOfTAT)
}

// ==========================
// Error Handling Tests
// ==========================

func TestEngine_FetchFailureAbortsRun(t *testing.T) {
	tests := []struct {
		name    string
		failing string
	}{
		{name: "applications fetch fails", failing: "PendingApplications"},
		{name: "holidays fetch fails", failing: "Holidays"},
		{name: "weekend config fetch fails", failing: "ActiveWeekendConfig"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := new(MockSource)
			boom := errors.New("connection reset")

			calls := map[string]func(){
				"PendingApplications": func() {
					source.On("PendingApplications", mock.Anything).Return([]models.PendingApplication{}, nil)
				},
				"Holidays": func() {
					source.On("Holidays", mock.Anything).Return([]models.Holiday{}, nil)
				},
				"ActiveWeekendConfig": func() {
					source.On("ActiveWeekendConfig", mock.Anything).Return(&models.WeekendConfig{}, nil)
				},
			}
			for name, install := range calls {
				if name == tt.failing {
					source.On(name, mock.Anything).Return(nil, boom)
				} else {
					install()
				}
			}

			engine := newTestEngine(t, source)

			h, err := engine.ComputeDelayedApplications(context.Background())
			require.Error(t, err)
			assert.Nil(t, h)

			code, ok := stderrors.CodeOf(err)
			require.True(t, ok)
			assert.Equal(t, stderrors.ErrCodeDataFetchFailed, code)
		})
	}
}

// ==========================
// Hierarchy Helpers
// ==========================

func TestHierarchy_Flatten(t *testing.T) {
	rows := []models.PendingApplication{
		pendingRow("A1", "C1", "B1", "5", date(2024, time.January, 1)),
		pendingRow("A3", "C2", "B3", "10", date(2024, time.January, 15)),
		pendingRow("A7", "C1", "B1", "5", date(2024, time.January, 8)),
	}

	engine := newTestEngine(t, sourceReturning(rows))

	h, err := engine.ComputeDelayedApplications(context.Background())
	require.NoError(t, err)

	flat := h.Flatten()
	require.Len(t, flat, 3)

	// Serials are contiguous and follow hierarchy order.
	assert.Equal(t, []int{1, 2, 3}, []int{flat[0].Serial, flat[1].Serial, flat[2].Serial})
	assert.Equal(t, "A1", flat[0].ApplicationID)
	assert.Equal(t, "A7", flat[1].ApplicationID)
	assert.Equal(t, "A3", flat[2].ApplicationID)
	assert.Equal(t, "Customer C1", flat[0].CustomerName)
	assert.Equal(t, "Branch B1", flat[1].BranchName)

	assert.Equal(t, 18, h.MaxDaysOutOfTAT())
}
