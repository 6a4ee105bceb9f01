package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nao1215/pagediff/internal/model"
	_ "modernc.org/sqlite" // SQLite driver
)

// FileName is the database file created inside the database directory.
const FileName = "pagediff.db"

// timeLayout stores UTC timestamps with fixed-width fractions so that
// they sort chronologically as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// ReportDB provides SQLite-based storage for comparison reports.
type ReportDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures ReportDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a ReportDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*ReportDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	rdb := &ReportDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := rdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return rdb, nil
}

// Path returns the database file path.
func (rdb *ReportDB) Path() string {
	return rdb.dbPath
}

// Close closes the database connection.
func (rdb *ReportDB) Close() error {
	return rdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (rdb *ReportDB) createTables() error {
	schema := `
	-- One row per comparison run
	CREATE TABLE IF NOT EXISTS comparisons (
		id TEXT PRIMARY KEY,
		base_name TEXT NOT NULL,
		compare_name TEXT NOT NULL,
		base_digest TEXT,
		compare_digest TEXT,
		strategy TEXT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		overall_similarity REAL,
		total_differences INTEGER,
		complete INTEGER,
		severity_summary TEXT,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_comparisons_names ON comparisons(base_name, compare_name);
	CREATE INDEX IF NOT EXISTS idx_comparisons_timestamp ON comparisons(timestamp);

	-- Page pairing decisions of every comparison
	CREATE TABLE IF NOT EXISTS page_pairs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		comparison_id TEXT NOT NULL REFERENCES comparisons(id) ON DELETE CASCADE,
		base_page INTEGER,
		compare_page INTEGER,
		similarity REAL,
		matched INTEGER,
		differences INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_pairs_comparison ON page_pairs(comparison_id);
	`

	_, err := rdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveReport stores a report and its page pairs in one transaction.
// Saving a report with an existing ID replaces it.
func (rdb *ReportDB) SaveReport(ctx context.Context, report *model.Report) error {
	if report == nil || report.ID == "" {
		return errors.New("report has no id")
	}

	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}
	severityJSON, err := json.Marshal(report.Summary.BySeverity)
	if err != nil {
		return fmt.Errorf("failed to serialize severity summary: %w", err)
	}

	tx, err := rdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM page_pairs WHERE comparison_id = ?`, report.ID); err != nil {
		return fmt.Errorf("failed to replace page pairs: %w", err)
	}

	query := `
	INSERT INTO comparisons (id, base_name, compare_name, base_digest, compare_digest, strategy,
		timestamp, overall_similarity, total_differences, complete, severity_summary, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		overall_similarity = excluded.overall_similarity,
		total_differences = excluded.total_differences,
		complete = excluded.complete,
		severity_summary = excluded.severity_summary,
		report_json = excluded.report_json
	`
	_, err = tx.ExecContext(ctx, query,
		report.ID,
		report.Base.Name,
		report.Compare.Name,
		report.Base.Digest,
		report.Compare.Digest,
		report.Strategy,
		report.StartedAt.UTC().Format(timeLayout),
		report.Summary.OverallSimilarity,
		report.Summary.TotalDifferences,
		report.Complete,
		string(severityJSON),
		string(reportJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO page_pairs (comparison_id, base_page, compare_page, similarity, matched, differences)
	VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare page pair insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range report.Pairs {
		diffs := 0
		if i < len(report.Pages) {
			diffs = report.Pages[i].DifferenceCount()
		}
		if _, err := stmt.ExecContext(ctx, report.ID, p.Base.Start, p.Compare.Start, p.Similarity, p.Matched, diffs); err != nil {
			return fmt.Errorf("failed to save page pair: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit report: %w", err)
	}
	return nil
}

// GetReportByID retrieves a report by its ID. It returns nil without an
// error when no report has that ID.
func (rdb *ReportDB) GetReportByID(ctx context.Context, id string) (*model.Report, error) {
	var reportJSON string
	err := rdb.db.QueryRowContext(ctx, `SELECT report_json FROM comparisons WHERE id = ?`, id).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	var report model.Report
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &report, nil
}

// ReportMetadata contains summary information about a stored report.
// It is used for listing history without loading the full report.
type ReportMetadata struct {
	ID                string
	BaseName          string
	CompareName       string
	Strategy          string
	Timestamp         time.Time
	OverallSimilarity float64
	TotalDifferences  int
	Complete          bool

	// SeveritySummary counts differences by severity name.
	SeveritySummary map[string]int

	// SameContent is set when both documents had identical text digests.
	SameContent bool
}

// ListReports returns the most recent reports first. A limit of zero or
// less returns all reports. When baseName or compareName is non-empty,
// only reports for those documents are returned.
func (rdb *ReportDB) ListReports(ctx context.Context, baseName, compareName string, limit int) ([]ReportMetadata, error) {
	query := `
	SELECT id, base_name, compare_name, base_digest, compare_digest, strategy, timestamp,
		overall_similarity, total_differences, complete, severity_summary
	FROM comparisons
	WHERE 1=1
	`
	args := make([]any, 0, 3)
	if baseName != "" {
		query += " AND base_name = ?"
		args = append(args, baseName)
	}
	if compareName != "" {
		query += " AND compare_name = ?"
		args = append(args, compareName)
	}
	query += " ORDER BY timestamp DESC, id"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := rdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	results := []ReportMetadata{}
	for rows.Next() {
		var (
			meta                      ReportMetadata
			baseDigest, compareDigest sql.NullString
			strategy, severityJSON    sql.NullString
			timestamp                 string
		)
		if err := rows.Scan(
			&meta.ID,
			&meta.BaseName,
			&meta.CompareName,
			&baseDigest,
			&compareDigest,
			&strategy,
			&timestamp,
			&meta.OverallSimilarity,
			&meta.TotalDifferences,
			&meta.Complete,
			&severityJSON,
		); err != nil {
			return nil, fmt.Errorf("failed to scan report metadata: %w", err)
		}

		meta.Strategy = strategy.String
		meta.Timestamp = parseTimestamp(timestamp)
		meta.SameContent = baseDigest.String != "" && baseDigest.String == compareDigest.String
		meta.SeveritySummary = make(map[string]int)
		if severityJSON.Valid && severityJSON.String != "" {
			if err := json.Unmarshal([]byte(severityJSON.String), &meta.SeveritySummary); err != nil {
				meta.SeveritySummary = make(map[string]int)
			}
		}
		results = append(results, meta)
	}

	return results, rows.Err()
}

// PairRecord is one stored page pairing decision.
type PairRecord struct {
	BasePage    int
	ComparePage int
	Similarity  float64
	Matched     bool
	Differences int
}

// GetPagePairs returns the page pairs stored for a report, in the
// report's pair order.
func (rdb *ReportDB) GetPagePairs(ctx context.Context, id string) ([]PairRecord, error) {
	rows, err := rdb.db.QueryContext(ctx, `
	SELECT base_page, compare_page, similarity, matched, differences
	FROM page_pairs
	WHERE comparison_id = ?
	ORDER BY id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get page pairs: %w", err)
	}
	defer rows.Close()

	results := []PairRecord{}
	for rows.Next() {
		var p PairRecord
		if err := rows.Scan(&p.BasePage, &p.ComparePage, &p.Similarity, &p.Matched, &p.Differences); err != nil {
			return nil, fmt.Errorf("failed to scan page pair: %w", err)
		}
		results = append(results, p)
	}
	return results, rows.Err()
}

// DeleteReport removes a report and its page pairs.
// It reports whether a report was deleted.
func (rdb *ReportDB) DeleteReport(ctx context.Context, id string) (bool, error) {
	tx, err := rdb.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM page_pairs WHERE comparison_id = ?`, id); err != nil {
		return false, fmt.Errorf("failed to delete page pairs: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM comparisons WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete report: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete report: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit delete: %w", err)
	}
	return n > 0, nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// More specific formats come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999",
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, it returns the zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
