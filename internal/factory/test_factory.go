package factory

import (
	"time"

	"github.com/soltown/promenade/internal/dependencies/mocks"
	"github.com/soltown/promenade/internal/session"
	"github.com/soltown/promenade/internal/storage/memory"
	"github.com/soltown/promenade/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked dependencies.
// The periodic scene sync is effectively disabled so tests see only the
// events they cause.
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	cfg := session.DefaultConfig()
	cfg.SyncInterval = time.Hour

	app := newWithDependencies(store, mockClock, mockRandom, cfg, testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}
