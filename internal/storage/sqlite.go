package storage

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a SQLite database holding medications, reminders and adherence
// records, each owned by an opaque user key.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database in dataDir and runs pending migrations.
// Pass ":memory:" as dataDir for an in-memory database (used by tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "medassist.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	// Set busy timeout so concurrent access waits briefly instead of failing immediately.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate reads embedded SQL migration files and applies any that haven't been run yet.
func (s *Store) migrate() error {
	// Ensure schema_version table exists (bootstrap).
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort by filename to guarantee ascending order.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		// Check if already applied.
		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}

		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}

	return nil
}

func parseMigrationVersion(filename string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(filename, "%d_", &version); err != nil {
		return 0, fmt.Errorf("parsing migration version from %q: %w", filename, err)
	}
	return version, nil
}

// AppliedMigrations returns the list of applied migration versions in ascending order.
func (s *Store) AppliedMigrations() ([]int, error) {
	rows, err := s.db.Query("SELECT version FROM schema_version ORDER BY version ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

const dateLayout = "2006-01-02"

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing created_at: %w", err)
	}
	return t, nil
}

func deleteOwned(tx interface {
	Exec(string, ...any) (sql.Result, error)
}, table, userID, id string) error {
	res, err := tx.Exec("DELETE FROM "+table+" WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Medications ---

// CreateMedication stores m for m.UserID, assigning ID and CreatedAt.
func (s *Store) CreateMedication(m Medication) (Medication, error) {
	m.ID = uuid.New().String()
	created := now()
	_, err := s.db.Exec(`
		INSERT INTO medications (id, user_id, name, dosage, frequency, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.UserID, m.Name, m.Dosage, m.Frequency, created,
	)
	if err != nil {
		return Medication{}, err
	}
	m.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return m, nil
}

// ListMedications returns the user's medications, oldest first.
func (s *Store) ListMedications(userID string) ([]Medication, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, name, dosage, frequency, created_at
		FROM medications WHERE user_id = ? ORDER BY created_at ASC, rowid ASC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []Medication{}
	for rows.Next() {
		var m Medication
		var createdAt string
		if err := rows.Scan(&m.ID, &m.UserID, &m.Name, &m.Dosage, &m.Frequency, &createdAt); err != nil {
			return nil, err
		}
		if m.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		results = append(results, m)
	}
	return results, rows.Err()
}

// DeleteMedication removes the medication and its reminders.
func (s *Store) DeleteMedication(userID, id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	if err := deleteOwned(tx, "medications", userID, id); err != nil {
		tx.Rollback()
		return err
	}
	if _, err := tx.Exec("DELETE FROM reminders WHERE medication_id = ? AND user_id = ?", id, userID); err != nil {
		tx.Rollback()
		return fmt.Errorf("deleting reminders of %s: %w", id, err)
	}
	return tx.Commit()
}

// --- Reminders ---

// CreateReminder stores r for r.UserID, assigning ID and CreatedAt. New
// reminders are unsent.
func (s *Store) CreateReminder(r Reminder) (Reminder, error) {
	r.ID = uuid.New().String()
	r.Sent = false
	created := now()
	_, err := s.db.Exec(`
		INSERT INTO reminders (id, user_id, medication_id, medication_name, time, sent, created_at)
		VALUES (?, ?, ?, ?, ?, 0, ?)`,
		r.ID, r.UserID, r.MedicationID, r.MedicationName, r.Time, created,
	)
	if err != nil {
		return Reminder{}, err
	}
	r.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return r, nil
}

const reminderColumns = "id, user_id, medication_id, medication_name, time, sent, created_at"

func (s *Store) queryReminders(query string, args ...any) ([]Reminder, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []Reminder{}
	for rows.Next() {
		var r Reminder
		var createdAt string
		if err := rows.Scan(&r.ID, &r.UserID, &r.MedicationID, &r.MedicationName, &r.Time, &r.Sent, &createdAt); err != nil {
			return nil, err
		}
		if r.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// ListReminders returns the user's reminders ordered by time of day.
func (s *Store) ListReminders(userID string) ([]Reminder, error) {
	return s.queryReminders(`SELECT `+reminderColumns+` FROM reminders
		WHERE user_id = ? ORDER BY time ASC, created_at ASC`, userID)
}

// ListAllReminders returns every user's reminders ordered by time of day.
func (s *Store) ListAllReminders() ([]Reminder, error) {
	return s.queryReminders(`SELECT ` + reminderColumns + ` FROM reminders
		ORDER BY time ASC, user_id ASC`)
}

// DeleteReminder removes one of the user's reminders.
func (s *Store) DeleteReminder(userID, id string) error {
	return deleteOwned(s.db, "reminders", userID, id)
}

// MarkReminderSent sets the sent flag of one of the user's reminders.
func (s *Store) MarkReminderSent(userID, id string, sent bool) (Reminder, error) {
	res, err := s.db.Exec("UPDATE reminders SET sent = ? WHERE id = ? AND user_id = ?", sent, id, userID)
	if err != nil {
		return Reminder{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Reminder{}, err
	}
	if n == 0 {
		return Reminder{}, ErrNotFound
	}
	rs, err := s.queryReminders(`SELECT `+reminderColumns+` FROM reminders WHERE id = ?`, id)
	if err != nil {
		return Reminder{}, err
	}
	if len(rs) == 0 {
		return Reminder{}, ErrNotFound
	}
	return rs[0], nil
}

// ResetRemindersSent clears every sent flag and returns how many were set.
func (s *Store) ResetRemindersSent() (int64, error) {
	res, err := s.db.Exec("UPDATE reminders SET sent = 0 WHERE sent = 1")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// --- Adherence ---

// RecordAdherence stores the outcome of one dose. Recording the same
// (medication, day, dose) again replaces the earlier outcome.
func (s *Store) RecordAdherence(a AdherenceRecord) (AdherenceRecord, error) {
	day := a.Date.UTC().Format(dateLayout)
	a.ID = uuid.New().String()
	created := now()

	err := s.db.QueryRow(`
		INSERT INTO adherence (id, user_id, medication_id, date, dose_index, taken, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, medication_id, date, dose_index)
		DO UPDATE SET taken = excluded.taken, created_at = excluded.created_at
		RETURNING id`,
		a.ID, a.UserID, a.MedicationID, day, a.DoseIndex, a.Taken, created,
	).Scan(&a.ID)
	if err != nil {
		return AdherenceRecord{}, err
	}
	a.Date, _ = time.Parse(dateLayout, day)
	a.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return a, nil
}

// ListAdherence returns the user's dose history, newest day first.
func (s *Store) ListAdherence(userID string) ([]AdherenceRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, medication_id, date, dose_index, taken, created_at
		FROM adherence WHERE user_id = ?
		ORDER BY date DESC, medication_id ASC, dose_index ASC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []AdherenceRecord{}
	for rows.Next() {
		var a AdherenceRecord
		var date, createdAt string
		if err := rows.Scan(&a.ID, &a.UserID, &a.MedicationID, &date, &a.DoseIndex, &a.Taken, &createdAt); err != nil {
			return nil, err
		}
		if a.Date, err = time.Parse(dateLayout, date); err != nil {
			return nil, fmt.Errorf("parsing date: %w", err)
		}
		if a.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		results = append(results, a)
	}
	return results, rows.Err()
}
