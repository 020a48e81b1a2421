package factory

import (
	"io"
	"log/slog"
	"time"

	"github.com/mcoot/scorekeeper/internal/dependencies/mocks"
	"github.com/mcoot/scorekeeper/internal/notify"
	"github.com/mcoot/scorekeeper/internal/remote"
	remotememory "github.com/mcoot/scorekeeper/internal/remote/memory"
	"github.com/mcoot/scorekeeper/internal/services/reconcile"
	"github.com/mcoot/scorekeeper/internal/storage/memory"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
	MockIDs    *mocks.MockIDs

	// Storage doubles
	Memory *memory.Storage
	Remote *remotememory.Repository

	// Recorder sees every notification published
	Recorder *notify.Recorder
}

// TestOption adjusts a TestApp before it is wired
type TestOption func(*testOptions)

type testOptions struct {
	remoteDisabled bool
}

// WithoutRemote wires the app with remote sync disabled
func WithoutRemote() TestOption {
	return func(o *testOptions) { o.remoteDisabled = true }
}

// NewTestApp creates an App configured for testing with mocked dependencies.
// Remote sync uses an in-memory repository with fast retries.
func NewTestApp(opts ...TestOption) *TestApp {
	var o testOptions
	for _, opt := range opts {
		opt(&o)
	}

	kv := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	mockIDs := mocks.NewMockIDs()
	recorder := notify.NewRecorder()

	deps := dependencies{
		kv:        kv,
		clock:     mockClock,
		random:    mockRandom,
		ids:       mockIDs,
		remoteCfg: testRemoteConfig(),
		syncCfg:   reconcile.DefaultConfig(),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		extra:     []notify.Notifier{recorder},
	}

	var repo *remotememory.Repository
	if !o.remoteDisabled {
		repo = remotememory.New()
		deps.repo = repo
	}

	return &TestApp{
		App:        newWithDependencies(deps),
		MockClock:  mockClock,
		MockRandom: mockRandom,
		MockIDs:    mockIDs,
		Memory:     kv,
		Remote:     repo,
		Recorder:   recorder,
	}
}

// testRemoteConfig retries quickly so failure tests stay fast
func testRemoteConfig() remote.Config {
	return remote.Config{
		MaxRetries:      2,
		Timeout:         time.Second,
		InitialInterval: time.Millisecond,
		MaxInterval:     time.Millisecond,
	}
}
