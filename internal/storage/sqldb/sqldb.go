package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"jobboard-ledger/internal/ledger"
	"jobboard-ledger/internal/models"

	"github.com/gocraft/dbr/v2"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// Store persists the ledger in PostgreSQL or SQLite.
type Store struct {
	driver string
	conn   *dbr.Connection
	sess   *dbr.Session
	logger *zap.Logger
}

func New(driver, dsn string, logger *zap.Logger) (*Store, error) {
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	if driver == DriverSQLite {
		dsn = sqliteDSN(dsn)
	}

	conn, err := dbr.Open(driver, dsn, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// set up connection pool
	if driver == DriverSQLite {
		conn.SetMaxOpenConns(1)
	} else {
		conn.SetMaxOpenConns(25)
		conn.SetMaxIdleConns(5)
		conn.SetConnMaxLifetime(5 * time.Minute)
	}

	// check connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{
		driver: driver,
		conn:   conn,
		sess:   conn.NewSession(nil),
		logger: logger,
	}

	if err := s.migrate(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	logger.Info("successfully connected to database", zap.String("driver", driver))

	return s, nil
}

// sqliteDSN makes every transaction take the write lock up front and wait
// for it instead of failing with SQLITE_BUSY.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_txlock") {
		return dsn
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}

	return dsn + sep + "_txlock=immediate&_busy_timeout=5000&_foreign_keys=1"
}

func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) BeginTx(ctx context.Context) (*dbr.Tx, error) {
	if s.driver == DriverSQLite {
		return s.sess.BeginTx(ctx, nil)
	}

	return s.sess.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelReadCommitted,
	})
}

func (s *Store) WithinTx(ctx context.Context, fn func(tx ledger.Tx) error) error {
	dtx, err := s.BeginTx(ctx)
	if err != nil {
		s.logger.Error("failed to begin transaction", zap.Error(err))
		return fmt.Errorf("begin tx: %w", err)
	}
	defer dtx.RollbackUnlessCommitted()

	if err := fn(&tx{store: s, tx: dtx}); err != nil {
		return err
	}

	if err := dtx.Commit(); err != nil {
		s.logger.Error("failed to commit transaction", zap.Error(err))
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

func (s *Store) Counters(ctx context.Context) (models.Counters, error) {
	var rows []struct {
		Name  string `db:"name"`
		Value uint64 `db:"value"`
	}

	_, err := s.sess.
		Select("name", "value").
		From("ledger_counters").
		LoadContext(ctx, &rows)

	if err != nil {
		s.logger.Error("failed to load counters", zap.Error(err))
		return models.Counters{}, fmt.Errorf("load counters: %w", err)
	}

	var c models.Counters
	for _, row := range rows {
		switch row.Name {
		case jobListingCounter:
			c.JobListings = row.Value
		case applicationCounter:
			c.Applications = row.Value
		}
	}

	return c, nil
}

// tx binds ledger operations to one database transaction.
type tx struct {
	store *Store
	tx    *dbr.Tx
}
