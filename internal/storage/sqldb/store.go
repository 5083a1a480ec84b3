package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"manager/internal/models"
)

// Supported database/sql driver names.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Options selects the database backend.
type Options struct {
	// Driver is DriverSQLite or DriverPostgres.
	Driver string
	// DSN is a file path for SQLite and a connection string for PostgreSQL.
	DSN string
}

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

// Store wraps access to the relational database and exposes high level helpers.
// A Store handed out by WithinTx runs every call on that transaction.
type Store struct {
	db      *sql.DB
	q       queryer
	inTx    bool
	dialect dialect
	logger  *slog.Logger
}

// Open connects to the database and runs the required migrations.
func Open(opts Options, logger *slog.Logger) (*Store, error) {
	if opts.DSN == "" {
		return nil, fmt.Errorf("empty database dsn")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var (
		d   dialect
		dsn string
	)
	switch opts.Driver {
	case "", DriverSQLite:
		if err := ensureDir(opts.DSN); err != nil {
			return nil, err
		}
		d = sqliteDialect
		dsn = fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=ON", opts.DSN)
	case DriverPostgres:
		d = postgresDialect
		dsn = opts.DSN
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}

	conn, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.driver, err)
	}
	if d.driver == DriverSQLite {
		conn.SetMaxOpenConns(1)
		conn.SetConnMaxLifetime(0)
	}

	s := &Store{db: conn, q: conn, dialect: d, logger: logger}
	if err := s.migrate(context.Background()); err != nil {
		_ = conn.Close()
		return nil, err
	}

	logger.Info("database ready", slog.String("driver", d.driver))
	return s, nil
}

// Close releases the database resources.
func (s *Store) Close() error {
	if s.db == nil || s.inTx {
		return nil
	}
	return s.db.Close()
}

// Ping checks the connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// WithinTx runs fn inside a transaction, committing when fn returns nil.
// Calls nested inside an existing transaction join it.
func (s *Store) WithinTx(ctx context.Context, fn func(tx *Store) error) (err error) {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &models.PersistenceError{Op: "begin transaction", Err: err}
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	txStore := *s
	txStore.q = tx
	txStore.inTx = true

	if err := fn(&txStore); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Warn("rollback failed", slog.String("error", rbErr.Error()))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return &models.PersistenceError{Op: "commit transaction", Err: err}
	}
	return nil
}

func ensureDir(dbPath string) error {
	dir := filepath.Dir(dbPath)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.q.ExecContext(ctx, s.dialect.rebind(query), args...)
}

func (s *Store) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.q.QueryContext(ctx, s.dialect.rebind(query), args...)
}

func (s *Store) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.q.QueryRowContext(ctx, s.dialect.rebind(query), args...)
}

// insert runs an INSERT ... RETURNING id statement.
func (s *Store) insert(ctx context.Context, query string, args ...any) (int64, error) {
	var id int64
	if err := s.queryRow(ctx, query+" RETURNING id", args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// execOne runs a statement that must touch exactly one row.
func (s *Store) execOne(ctx context.Context, op, query string, args ...any) error {
	res, err := s.exec(ctx, query, args...)
	if err != nil {
		return s.fail(op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return s.fail(op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return nil
}

// fail translates driver errors into the models error taxonomy.
func (s *Store) fail(op string, err error) error {
	var ve *models.ValidationError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows), errors.Is(err, models.ErrNotFound):
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	case errors.Is(err, models.ErrConflict), errors.As(err, &ve):
		return err
	case isUniqueViolation(err):
		return fmt.Errorf("%s: %w", op, models.ErrConflict)
	case isForeignKeyViolation(err):
		return models.Invalid("non_field_errors", "referenced record does not exist")
	}
	return &models.PersistenceError{Op: op, Err: err}
}

func isUniqueViolation(err error) bool {
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23503"
	}
	return false
}

// requireIDs checks that every id exists in table, reporting a field error otherwise.
func (s *Store) requireIDs(ctx context.Context, table, field string, ids ...int64) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	var n int
	err := s.queryRow(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE id IN (%s)`, table, placeholders), args...).Scan(&n)
	if err != nil {
		return s.fail("check "+table, err)
	}
	if n != len(ids) {
		return models.Invalid(field, "select a valid choice; that choice is not one of the available choices")
	}
	return nil
}

func nullableID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func idPtr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	id := v.Int64
	return &id
}

// likePattern builds a case-insensitive substring pattern with wildcards escaped.
func likePattern(keyword string) string {
	escaper := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + strings.ToLower(escaper.Replace(keyword)) + "%"
}

// keywordFilter returns a WHERE clause matching keyword against any of cols.
func keywordFilter(keyword string, cols ...string) (string, []any) {
	if keyword == "" {
		return "", nil
	}
	pattern := likePattern(keyword)
	clauses := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		clauses[i] = fmt.Sprintf(`LOWER(%s) LIKE ? ESCAPE '\'`, col)
		args[i] = pattern
	}
	return " WHERE (" + strings.Join(clauses, " OR ") + ")", args
}

// listPage counts and selects one page. selectSQL must end before LIMIT.
// All rows are read and closed before returning so callers may query again.
func listPage[T any](ctx context.Context, s *Store, op string, q models.ListQuery, countSQL, selectSQL string, args []any, scan func(rowScanner) (T, error)) (models.Page[T], error) {
	var total int64
	if err := s.queryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return models.Page[T]{}, s.fail(op, err)
	}

	pageArgs := append(append([]any{}, args...), q.PageSize, q.Offset())
	rows, err := s.query(ctx, selectSQL+" LIMIT ? OFFSET ?", pageArgs...)
	if err != nil {
		return models.Page[T]{}, s.fail(op, err)
	}
	items, err := collect(rows, scan)
	if err != nil {
		return models.Page[T]{}, s.fail(op, err)
	}
	return models.NewPage(items, q, total)
}

func collect[T any](rows *sql.Rows, scan func(rowScanner) (T, error)) ([]T, error) {
	defer rows.Close()
	var items []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func placeholderIndex(n int) string {
	return "$" + strconv.Itoa(n)
}
