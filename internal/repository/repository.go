package repository

import (
	"context"
	"fmt"

	"questcycle/pkg/logger"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrUnsupportedDialect = errors.New("unsupported database driver")
)

type Dialect string

const (
	DialectPostgres Dialect = "pgx"
	DialectSQLite   Dialect = "sqlite"
)

func (d Dialect) placeholder() squirrel.PlaceholderFormat {
	if d == DialectSQLite {
		return squirrel.Question
	}
	return squirrel.Dollar
}

type Repository struct {
	db      *sqlx.DB
	dialect Dialect
	sb      squirrel.StatementBuilderType
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) Dialect() Dialect {
	return r.dialect
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) Transaction(ctx context.Context, t func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	err = t(tx)
	if err != nil {
		txErr := tx.Rollback()
		if txErr != nil {
			return errors.Wrapf(err, "rollback error: %v", txErr)
		}
		return err
	}
	return tx.Commit()
}

type Config struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslMode"`
}

func New(cfg Config) (*Repository, error) {
	dialect := Dialect(cfg.Driver)
	if dialect == "" {
		dialect = DialectPostgres
	}

	var dsn string
	switch dialect {
	case DialectPostgres:
		dsn = cfg.GetDatabaseURL()
	case DialectSQLite:
		dsn = cfg.Name + "?_time_format=sqlite&_pragma=foreign_keys(1)"
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDialect, cfg.Driver)
	}

	db, err := sqlx.Connect(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if dialect == DialectSQLite {
		db.SetMaxOpenConns(1)
	}

	logger.Logger().Info("Connected to database successfully")

	return NewWithDB(db, dialect), nil
}

// NewWithDB wraps an already opened handle.
func NewWithDB(db *sqlx.DB, dialect Dialect) *Repository {
	return &Repository{
		db:      db,
		dialect: dialect,
		sb:      squirrel.StatementBuilder.PlaceholderFormat(dialect.placeholder()),
	}
}

func (c *Config) GetDatabaseURL() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Name,
		sslMode,
	)
}

func nullableUUID(id *uuid.UUID) interface{} {
	if id == nil {
		return nil
	}
	return *id
}
