// Package relational stores quotes in a SQL database through GORM. SQLite
// (pure Go driver) and PostgreSQL (pooled with pgx) are supported.
package relational

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/jsamuelsen/classquotes/internal/domain"
	"github.com/jsamuelsen/classquotes/internal/platform/metrics"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const slowQueryThreshold = 200 * time.Millisecond

// Options configures Open.
type Options struct {
	Driver string
	DSN    string

	// MaxConns caps the postgres pool. Zero keeps the pgxpool default.
	MaxConns int32

	// Seed is consulted once per database, the first time it is opened.
	Seed func() []domain.Quote

	Logger *slog.Logger
}

// Store is a GORM-backed ports.QuoteStore.
type Store struct {
	db     *gorm.DB
	sqlDB  *sql.DB
	pool   *pgxpool.Pool
	driver string
}

// Open connects, creates the tables when missing and applies the seed
// policy. The returned store owns the connection.
func Open(ctx context.Context, opts Options) (*Store, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	gormCfg := &gorm.Config{
		Logger: gormlogger.NewSlogLogger(logger.With(slog.String("component", "gorm")), gormlogger.Config{
			SlowThreshold:             slowQueryThreshold,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	}

	s := &Store{driver: opts.Driver}

	var dialector gorm.Dialector

	switch opts.Driver {
	case DriverSQLite:
		dialector = sqlite.Open(opts.DSN)
	case DriverPostgres:
		pool, err := openPool(ctx, opts.DSN, opts.MaxConns)
		if err != nil {
			return nil, domain.NewStorageError("open", err)
		}

		s.pool = pool
		dialector = postgres.New(postgres.Config{Conn: stdlib.OpenDBFromPool(pool)})
	default:
		return nil, fmt.Errorf("unsupported relational driver %q", opts.Driver)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		s.closePool()
		return nil, domain.NewStorageError("open", err)
	}

	s.db = db

	s.sqlDB, err = db.DB()
	if err != nil {
		s.closePool()
		return nil, domain.NewStorageError("open", err)
	}

	if opts.Driver == DriverSQLite {
		// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
		s.sqlDB.SetMaxOpenConns(1)
	}

	if err := s.migrate(ctx); err != nil {
		_ = s.Close()
		return nil, domain.NewStorageError("migrate", err)
	}

	if err := s.seedOnce(ctx, opts.Seed); err != nil {
		_ = s.Close()
		return nil, domain.NewStorageError("seed", err)
	}

	return s, nil
}

func openPool(ctx context.Context, dsn string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing dsn: %w", err)
	}

	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}

	return pool, nil
}

func (s *Store) migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&quoteRow{}, &settingRow{})
}

// seedOnce inserts the seed only into a database that was never seeded and
// holds no quotes. The marker is written in the same transaction.
func (s *Store) seedOnce(ctx context.Context, seed func() []domain.Quote) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var marker settingRow

		err := tx.Where(clause.Eq{Column: clause.Column{Name: "key"}, Value: seededKey}).First(&marker).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var count int64
		if err := tx.Model(&quoteRow{}).Count(&count).Error; err != nil {
			return err
		}

		if count == 0 && seed != nil {
			quotes := seed()
			if len(quotes) > 0 {
				rows := make([]quoteRow, 0, len(quotes))
				for _, q := range quotes {
					rows = append(rows, rowFromDomain(q))
				}

				if err := tx.Create(&rows).Error; err != nil {
					return err
				}
			}
		}

		return tx.Create(&settingRow{Key: seededKey, Value: "true", UpdatedAt: time.Now().UTC()}).Error
	})
}

func (s *Store) List(ctx context.Context) ([]domain.Quote, error) {
	var rows []quoteRow

	err := s.db.WithContext(ctx).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "timestamp"}, Desc: true}).
		Find(&rows).Error
	if err != nil {
		return nil, domain.NewStorageError("list", err)
	}

	out := make([]domain.Quote, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}

	return out, nil
}

func (s *Store) Get(ctx context.Context, id string) (*domain.Quote, error) {
	row, err := findRow(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, mapError("get", id, err)
	}

	q := row.toDomain()

	return &q, nil
}

func (s *Store) Create(ctx context.Context, draft domain.QuoteDraft) (*domain.Quote, error) {
	q := draft.WithID(uuid.NewString())
	row := rowFromDomain(q)

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, domain.NewStorageError("create", err)
	}

	return &q, nil
}

func (s *Store) Update(ctx context.Context, id string, patch domain.QuotePatch) (*domain.Quote, error) {
	var updated quoteRow

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := findRow(tx, id)
		if err != nil {
			return err
		}

		if cols := patchColumns(patch); len(cols) > 0 {
			err = tx.Model(&quoteRow{}).
				Where(clause.Eq{Column: clause.Column{Name: "id"}, Value: id}).
				Updates(cols).Error
			if err != nil {
				return err
			}

			current, err = findRow(tx, id)
			if err != nil {
				return err
			}
		}

		updated = current

		return nil
	})
	if err != nil {
		return nil, mapError("update", id, err)
	}

	q := updated.toDomain()

	return &q, nil
}

func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	res := s.db.WithContext(ctx).
		Where(clause.Eq{Column: clause.Column{Name: "id"}, Value: id}).
		Delete(&quoteRow{})
	if res.Error != nil {
		return false, domain.NewStorageError("delete", res.Error)
	}

	return res.RowsAffected > 0, nil
}

// Close releases the connection and, for postgres, the pool.
func (s *Store) Close() error {
	var err error
	if s.sqlDB != nil {
		err = s.sqlDB.Close()
	}

	s.closePool()

	return err
}

func (s *Store) closePool() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Name implements ports.HealthChecker.
func (s *Store) Name() string { return "quote-store" }

// Check pings the database and publishes pool statistics.
func (s *Store) Check(ctx context.Context) error {
	if s.pool != nil {
		st := s.pool.Stat()
		metrics.UpdateDBPoolMetrics(s.driver,
			float64(st.TotalConns()), float64(st.IdleConns()), float64(st.AcquiredConns()), st.AcquireCount())
	}

	if err := s.sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("pinging %s: %w", s.driver, err)
	}

	return nil
}

func findRow(db *gorm.DB, id string) (quoteRow, error) {
	var row quoteRow

	err := db.Where(clause.Eq{Column: clause.Column{Name: "id"}, Value: id}).First(&row).Error

	return row, err
}

func mapError(op, id string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.NewNotFoundError("quote", id)
	}

	return domain.NewStorageError(op, err)
}
