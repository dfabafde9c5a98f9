// Package storage handles database connections, schema migrations, and the query history using SQLite.
package storage

import (
	"database/sql"
	"time"

	"github.com/woozymasta/mcstatus/internal/models"
	_ "modernc.org/sqlite" // Driver sqlite
)

// Repository manages the SQLite database connection.
type Repository struct {
	db *sql.DB
}

// New initializes a new SQLite connection, sets connection pool parameters, and runs migrations.
func New(dbPath string) (*Repository, error) {
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(1 * time.Hour)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Repository{db: db}, nil
}

// Close closes the underlying database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// InsertQuery appends a query record and returns its id.
func (r *Repository) InsertQuery(q models.QueryRecord) (int64, error) {
	res, err := r.db.Exec(`
		INSERT INTO queries (
			request_id, host, port, remote_ip, country_code, client_ip,
			outcome, error, latency_ms, payload_size, queried_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.RequestID, q.Host, q.Port, q.RemoteIP, q.CountryCode, q.ClientIP,
		q.Outcome, q.Error, q.LatencyMS, q.PayloadSize, q.QueriedAt.UTC(),
	)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

// ListQueries returns the most recent records, newest first.
func (r *Repository) ListQueries(limit int) ([]models.QueryRecord, error) {
	rows, err := r.db.Query(`
		SELECT id, request_id, host, port, remote_ip, country_code, client_ip,
		       outcome, error, latency_ms, payload_size, queried_at
		FROM queries
		ORDER BY queried_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var records []models.QueryRecord
	for rows.Next() {
		var q models.QueryRecord
		if err := rows.Scan(
			&q.ID, &q.RequestID, &q.Host, &q.Port, &q.RemoteIP, &q.CountryCode, &q.ClientIP,
			&q.Outcome, &q.Error, &q.LatencyMS, &q.PayloadSize, &q.QueriedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

// CountQueries returns the number of stored records.
func (r *Repository) CountQueries() (int64, error) {
	var n int64
	err := r.db.QueryRow(`SELECT COUNT(*) FROM queries`).Scan(&n)
	return n, err
}

// PruneQueries deletes records queried before the given time.
func (r *Repository) PruneQueries(before time.Time) (int64, error) {
	res, err := r.db.Exec(`DELETE FROM queries WHERE queried_at < ?`, before.UTC())
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}
