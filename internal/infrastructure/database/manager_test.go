package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iamrahulroyy/ats-checker/internal/infrastructure/resilience"
)

func newMockManager(t *testing.T, maxFailures int) (*Manager, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cfg := DefaultConfig("postgres://mock")
	cfg.RetryBackoff = time.Millisecond

	breaker := resilience.NewBreaker("database", resilience.Settings{
		MaxFailures: maxFailures,
		Cooldown:    time.Minute,
	})
	m := NewManager(cfg, breaker, zap.NewNop())
	m.db = db
	return m, mock
}

func TestWithSessionCommits(t *testing.T) {
	m, mock := newMockManager(t, 5)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO resumes").
		WithArgs("cv.pdf").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := m.WithSession(context.Background(), func(ctx context.Context, s *Session) error {
		_, err := s.ExecContext(ctx, "INSERT INTO resumes (filename) VALUES ($1)", "cv.pdf")
		return err
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, 0, m.breaker.FailureCount())
}

func TestWithSessionRollsBackOnError(t *testing.T) {
	m, mock := newMockManager(t, 5)

	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("duplicate key value violates unique constraint")
	err := m.WithSession(context.Background(), func(ctx context.Context, s *Session) error {
		return boom
	})

	require.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
	// A logic error rolls back but is not an infrastructure failure.
	assert.Equal(t, 0, m.breaker.FailureCount())
}

func TestWithSessionTransientErrorCountsTowardBreaker(t *testing.T) {
	m, mock := newMockManager(t, 5)

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := m.WithSession(context.Background(), func(ctx context.Context, s *Session) error {
		return resilience.MarkTransient(errors.New("connection reset by peer"))
	})

	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, 1, m.breaker.FailureCount())
}

func TestWithSessionOpenCircuitShortCircuits(t *testing.T) {
	m, mock := newMockManager(t, 1)
	m.breaker.RecordFailure()
	require.True(t, m.breaker.IsOpen())

	err := m.WithSession(context.Background(), func(ctx context.Context, s *Session) error {
		t.Fatal("guarded operation must not run while the circuit is open")
		return nil
	})

	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	// No Begin, no Rollback: the pool was never touched.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithSessionRetriesAcquisition(t *testing.T) {
	m, mock := newMockManager(t, 5)

	mock.ExpectBegin().WillReturnError(resilience.MarkTransient(errors.New("too many clients already")))
	mock.ExpectBegin()
	mock.ExpectCommit()

	err := m.WithSession(context.Background(), func(ctx context.Context, s *Session) error {
		return nil
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, 0, m.breaker.FailureCount())
}

func TestWithSessionCommitFailureReported(t *testing.T) {
	m, mock := newMockManager(t, 5)

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(resilience.MarkTransient(errors.New("server closed the connection")))

	err := m.WithSession(context.Background(), func(ctx context.Context, s *Session) error {
		return nil
	})

	require.Error(t, err)
	assert.Equal(t, 1, m.breaker.FailureCount())
}

func TestSessionReleaseIsIdempotent(t *testing.T) {
	m, mock := newMockManager(t, 5)

	mock.ExpectBegin()
	mock.ExpectRollback()

	sess, err := m.acquire(context.Background())
	require.NoError(t, err)

	sess.release()
	sess.release() // second release must not touch the driver again

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInitSchemaOpenCircuitShortCircuits(t *testing.T) {
	m, mock := newMockManager(t, 1)
	m.breaker.RecordFailure()

	err := m.InitSchema(context.Background())

	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenCircuitOpenShortCircuits(t *testing.T) {
	m, _ := newMockManager(t, 1)
	m.breaker.RecordFailure()

	err := m.Open(context.Background())
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
}

func TestHealthWithoutOpen(t *testing.T) {
	breaker := resilience.NewBreaker("database", resilience.Settings{})
	m := NewManager(DefaultConfig("postgres://mock"), breaker, zap.NewNop())

	assert.Error(t, m.Health(context.Background()))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("postgres://localhost/ats")

	assert.Equal(t, 5, cfg.PoolSize)
	assert.Equal(t, 10, cfg.MaxOverflow)
	assert.Equal(t, 30*time.Second, cfg.PoolTimeout)
	assert.Equal(t, 1800*time.Second, cfg.PoolRecycle)
	assert.Equal(t, 10*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, 5, cfg.EngineRetries)
	assert.Equal(t, 3, cfg.SchemaRetries)
	assert.Equal(t, 3, cfg.SessionRetries)
}
