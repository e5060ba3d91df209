package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx via database/sql
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/iamrahulroyy/ats-checker/internal/infrastructure/resilience"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Config holds connection pool and resilience settings.
type Config struct {
	URL            string
	PoolSize       int
	MaxOverflow    int
	PoolTimeout    time.Duration
	PoolRecycle    time.Duration
	ConnectTimeout time.Duration
	EngineRetries  int
	SchemaRetries  int
	SessionRetries int
	RetryBackoff   time.Duration
}

// DefaultConfig returns pool settings matching the documented defaults.
func DefaultConfig(url string) Config {
	return Config{
		URL:            url,
		PoolSize:       5,
		MaxOverflow:    10,
		PoolTimeout:    30 * time.Second,
		PoolRecycle:    1800 * time.Second,
		ConnectTimeout: 10 * time.Second,
		EngineRetries:  5,
		SchemaRetries:  3,
		SessionRetries: 3,
		RetryBackoff:   time.Second,
	}
}

// Manager owns the process-wide connection pool and gates every database
// operation behind a shared circuit breaker and per-operation retry
// policies.
type Manager struct {
	cfg     Config
	breaker *resilience.Breaker
	logger  *zap.Logger

	engineRetry  resilience.RetryPolicy
	schemaRetry  resilience.RetryPolicy
	sessionRetry resilience.RetryPolicy

	db *sql.DB
}

// NewManager creates a manager. Open must be called before any sessions
// are acquired.
func NewManager(cfg Config, breaker *resilience.Breaker, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		cfg:          cfg,
		breaker:      breaker,
		logger:       logger,
		engineRetry:  resilience.NewRetryPolicy(cfg.EngineRetries, cfg.RetryBackoff, logger),
		schemaRetry:  resilience.NewRetryPolicy(cfg.SchemaRetries, cfg.RetryBackoff, logger),
		sessionRetry: resilience.NewRetryPolicy(cfg.SessionRetries, cfg.RetryBackoff, logger),
	}
}

// Open builds the pooled connection and verifies it with a liveness
// probe. It is called once at startup; the resulting pool lives for the
// process lifetime.
func (m *Manager) Open(ctx context.Context) error {
	if m.breaker.IsOpen() {
		return fmt.Errorf("create engine: %w", resilience.ErrCircuitOpen)
	}

	err := m.engineRetry.Do(ctx, "create engine", func() error {
		db, err := sql.Open("pgx", m.cfg.URL)
		if err != nil {
			return fmt.Errorf("open pool: %w", err)
		}

		db.SetMaxOpenConns(m.cfg.PoolSize + m.cfg.MaxOverflow)
		db.SetMaxIdleConns(m.cfg.PoolSize)
		db.SetConnMaxLifetime(m.cfg.PoolRecycle)

		probeCtx, cancel := context.WithTimeout(ctx, m.cfg.ConnectTimeout)
		defer cancel()

		if err := db.PingContext(probeCtx); err != nil {
			_ = db.Close()
			return fmt.Errorf("ping: %w", err)
		}
		var one int
		if err := db.QueryRowContext(probeCtx, "SELECT 1").Scan(&one); err != nil {
			_ = db.Close()
			return fmt.Errorf("liveness probe: %w", err)
		}

		m.db = db
		return nil
	})
	if err != nil {
		m.reportFailure(err)
		return err
	}

	m.breaker.RecordSuccess()
	m.logger.Info("database engine created",
		zap.Int("max_open_conns", m.cfg.PoolSize+m.cfg.MaxOverflow),
		zap.Duration("conn_max_lifetime", m.cfg.PoolRecycle),
	)
	return nil
}

// InitSchema applies the embedded migrations. Safe to run repeatedly.
func (m *Manager) InitSchema(ctx context.Context) error {
	if m.breaker.IsOpen() {
		return fmt.Errorf("init schema: %w", resilience.ErrCircuitOpen)
	}

	err := m.schemaRetry.Do(ctx, "init schema", func() error {
		goose.SetBaseFS(migrationsFS)
		goose.SetLogger(goose.NopLogger())
		if err := goose.SetDialect("postgres"); err != nil {
			return err
		}
		return goose.UpContext(ctx, m.db, "migrations")
	})
	if err != nil {
		m.reportFailure(err)
		return err
	}

	m.breaker.RecordSuccess()
	m.logger.Info("database schema initialized")
	return nil
}

// WithSession acquires a scoped session, runs fn inside it, and commits
// when fn returns nil or rolls back when it returns an error. The
// underlying connection is always returned to the pool, on every exit
// path. The commit outcome is reported to the breaker; logic errors from
// fn (constraint violations and the like) roll back and propagate but do
// not count toward the breaker threshold.
func (m *Manager) WithSession(ctx context.Context, fn func(ctx context.Context, s *Session) error) error {
	if m.breaker.IsOpen() {
		return fmt.Errorf("acquire session: %w", resilience.ErrCircuitOpen)
	}

	sess, err := m.acquire(ctx)
	if err != nil {
		m.reportFailure(err)
		return err
	}
	defer sess.release()

	if err := fn(ctx, sess); err != nil {
		sess.rollback()
		m.reportFailure(err)
		return err
	}

	if err := sess.commit(); err != nil {
		sess.rollback()
		m.reportFailure(err)
		return fmt.Errorf("commit session: %w", err)
	}

	m.breaker.RecordSuccess()
	return nil
}

// acquire checks a connection out of the pool and begins a transaction,
// retrying transient failures. Waiting for a free connection is bounded
// by PoolTimeout; the transaction itself runs under the caller's context.
func (m *Manager) acquire(ctx context.Context) (*Session, error) {
	var sess *Session
	err := m.sessionRetry.Do(ctx, "acquire session", func() error {
		waitCtx, cancel := context.WithTimeout(ctx, m.cfg.PoolTimeout)
		defer cancel()

		conn, err := m.db.Conn(waitCtx)
		if err != nil {
			return fmt.Errorf("checkout connection: %w", err)
		}
		tx, err := conn.BeginTx(ctx, nil)
		if err != nil {
			_ = conn.Close()
			return fmt.Errorf("begin transaction: %w", err)
		}

		sess = &Session{conn: conn, tx: tx}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// reportFailure counts only infrastructure-class failures toward the
// breaker threshold.
func (m *Manager) reportFailure(err error) {
	if !resilience.IsTransient(err) {
		return
	}
	if m.breaker.RecordFailure() {
		m.logger.Error("database circuit breaker open",
			zap.String("breaker", m.breaker.Name()),
			zap.Error(err),
		)
	}
}

// Health pings the pool.
func (m *Manager) Health(ctx context.Context) error {
	if m.db == nil {
		return fmt.Errorf("database not opened")
	}
	return m.db.PingContext(ctx)
}

// Stats exposes pool statistics for monitoring.
func (m *Manager) Stats() sql.DBStats {
	if m.db == nil {
		return sql.DBStats{}
	}
	return m.db.Stats()
}

// Breaker returns the breaker guarding this database.
func (m *Manager) Breaker() *resilience.Breaker {
	return m.breaker
}

// Close releases the pool.
func (m *Manager) Close() error {
	if m.db == nil {
		return nil
	}
	return m.db.Close()
}
