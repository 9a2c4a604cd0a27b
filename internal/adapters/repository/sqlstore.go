package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"           // postgres driver
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver

	"github.com/brian-reel/airtable-heroku/internal/domain/model"
)

const pingTimeout = 30 * time.Second

// Open connects to the system of record and verifies the connection.
// Supported drivers are "postgres" and "sqlite3".
func Open(ctx context.Context, driver, dsn string, maxOpenConns int) (*sqlx.DB, error) {
	switch driver {
	case "postgres", "sqlite3":
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
		db.SetMaxIdleConns(maxOpenConns)
	}
	db.SetConnMaxLifetime(5 * time.Minute)

	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", driver, err)
	}
	return db, nil
}

// sourceRow is the column layout every source query must produce.
type sourceRow struct {
	ID            sql.NullString `db:"id"`
	PersonID      sql.NullString `db:"person_id"`
	Name          sql.NullString `db:"name"`
	Email         sql.NullString `db:"email"`
	Phone         sql.NullString `db:"phone"`
	Active        sql.NullBool   `db:"active"`
	TenantID      sql.NullString `db:"tenant_id"`
	UpdatedAt     sql.NullTime   `db:"updated_at"`
	CreatedAt     sql.NullTime   `db:"created_at"`
	LicenseNumber sql.NullString `db:"license_number"`
	LicenseExpiry sql.NullString `db:"license_expiry"`
	LicenseType   sql.NullString `db:"license_type"`
	Role          sql.NullString `db:"role"`
	Department    sql.NullString `db:"department"`
	CourseData    sql.NullString `db:"course_data"`
}

func (r *sourceRow) entity() model.SourceEntity {
	e := model.SourceEntity{
		ID:            r.ID.String,
		PersonID:      r.PersonID.String,
		Name:          r.Name.String,
		Email:         r.Email.String,
		Phone:         r.Phone.String,
		Active:        r.Active.Valid && r.Active.Bool,
		TenantID:      r.TenantID.String,
		LicenseNumber: r.LicenseNumber.String,
		LicenseExpiry: r.LicenseExpiry.String,
		LicenseType:   r.LicenseType.String,
		Role:          r.Role.String,
		Department:    r.Department.String,
		CourseData:    r.CourseData.String,
	}
	if r.UpdatedAt.Valid {
		e.UpdatedAt = r.UpdatedAt.Time.UTC()
	}
	if r.CreatedAt.Valid {
		e.CreatedAt = r.CreatedAt.Time.UTC()
	}
	return e
}

// SQLStore runs one registered query per sync purpose.
type SQLStore struct {
	db      *sqlx.DB
	queries map[string]string
}

// NewSQLStore wraps an open database.
func NewSQLStore(db *sqlx.DB, opts ...Option) *SQLStore {
	s := &SQLStore{
		db:      db.Unsafe(),
		queries: make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchEntities runs the query registered for f.Purpose and applies f.
func (s *SQLStore) FetchEntities(ctx context.Context, f Filter) ([]model.SourceEntity, error) {
	query, ok := s.queries[f.Purpose]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPurpose, f.Purpose)
	}

	var rows []sourceRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrQuery, f.Purpose, err)
	}

	out := make([]model.SourceEntity, 0, len(rows))
	for i := range rows {
		e := rows[i].entity()
		if f.Match(&e) {
			out = append(out, e)
		}
	}
	return out, nil
}
