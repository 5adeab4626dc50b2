// Package log provides a Zerolog-based logger that writes to the console and,
// once Init is called, also stores JSON log lines in an SQLite database.
package log

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// zerologTimeFieldFormat is fixed width so stored timestamps sort as text.
const zerologTimeFieldFormat = "2006-01-02T15:04:05.000000000Z07:00"

// State shared by the sinks and loggers, guarded by mu.
var (
	pkgLogger        = zerolog.Nop()
	recordLogger     = zerolog.Nop()
	consoleWriter    io.Writer
	consoleLevel     = zerolog.InfoLevel
	dbWriterInstance *sqliteWriter
	dbHandle         *sql.DB
	mu               sync.RWMutex
)

// ErrNotInitialized is returned by retrieval functions before Init.
var ErrNotInitialized = errors.New("log: logger not initialized, call log.Init() first")

type sqliteWriter struct {
	db   *sql.DB
	stmt *sql.Stmt
	mu   sync.Mutex // Protect concurrent writes to the statement
}

func newSQLiteWriter(dbPath string) (*sqliteWriter, *sql.DB, error) {
	dsn := fmt.Sprintf("%s?_pragma=journal_mode=wal&_pragma=busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open sqlite db %s: %w", dbPath, err)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to ping sqlite db %s: %w", dbPath, err)
	}

	createTableSQL := `
    CREATE TABLE IF NOT EXISTS logs (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        inserted_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP NOT NULL,
        log_data TEXT NOT NULL
    );`
	if _, err = db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to create logs table: %w", err)
	}

	createIndexSQLTime := `CREATE INDEX IF NOT EXISTS idx_logs_json_time ON logs (json_extract(log_data, '$.time'));`
	if _, err = db.Exec(createIndexSQLTime); err != nil {
		stdlog.Printf("Warning: Failed to create JSON time index: %v. Performance for time-based queries might be reduced.\n", err)
	}

	stmt, err := db.Prepare(`INSERT INTO logs (log_data) VALUES (?)`)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to prepare insert statement: %w", err)
	}

	return &sqliteWriter{db: db, stmt: stmt}, db, nil
}

func (w *sqliteWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err = w.stmt.Exec(string(p)); err != nil {
		stdlog.Printf("ERROR writing log to SQLite: %v\n", err)
		return 0, err
	}
	return len(p), nil
}

func (w *sqliteWriter) close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var errs []error
	if w.stmt != nil {
		if err := w.stmt.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing statement: %w", err))
		}
		w.stmt = nil
	}
	if w.db != nil {
		if err := w.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing db: %w", err))
		}
		w.db = nil
	}
	return errors.Join(errs...)
}

// rebuild recomputes pkgLogger and recordLogger from the configured sinks.
// Caller holds mu.
func rebuild() {
	recordLogger = zerolog.Nop()
	if dbWriterInstance != nil {
		recordLogger = zerolog.New(dbWriterInstance).With().Timestamp().Logger()
	}

	var writers []io.Writer
	if consoleWriter != nil {
		writers = append(writers, consoleWriter)
	}
	if dbWriterInstance != nil {
		writers = append(writers, dbWriterInstance)
	}
	switch len(writers) {
	case 0:
		pkgLogger = zerolog.Nop()
	case 1:
		pkgLogger = zerolog.New(writers[0]).Level(consoleLevel).With().Timestamp().Logger()
	default:
		pkgLogger = zerolog.New(zerolog.MultiLevelWriter(writers...)).Level(consoleLevel).With().Timestamp().Logger()
	}
}

// SetStd routes logs at or above level to a human-readable writer on stderr.
func SetStd(level zerolog.Level) {
	SetOutput(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}, level)
}

// SetOutput routes logs at or above level to w. A nil w disables console output.
func SetOutput(w io.Writer, level zerolog.Level) {
	mu.Lock()
	defer mu.Unlock()
	consoleWriter = w
	consoleLevel = level
	rebuild()
}

// Init additionally persists log lines to the SQLite database at dbPath,
// creating its parent directory if needed.
func Init(dbPath string) error {
	if dbPath == "" {
		return fmt.Errorf("logger need an explicit dbPath")
	}

	mu.Lock()
	defer mu.Unlock()

	if dbWriterInstance != nil {
		return fmt.Errorf("logger already initialized")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	writer, db, err := newSQLiteWriter(dbPath)
	if err != nil {
		return fmt.Errorf("failed to create SQLite writer: %w", err)
	}

	dbWriterInstance = writer
	dbHandle = db

	zerolog.TimeFieldFormat = zerologTimeFieldFormat
	zerolog.TimestampFunc = func() time.Time { return time.Now().UTC() }
	rebuild()
	return nil
}

// Initialized reports whether Init has been called without a matching Close.
func Initialized() bool {
	mu.RLock()
	defer mu.RUnlock()
	return dbWriterInstance != nil
}

// Close releases the SQLite sink. Console output stays configured.
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	if dbWriterInstance == nil {
		return nil
	}

	dbWriter := dbWriterInstance
	dbHandle = nil
	dbWriterInstance = nil
	rebuild()

	if err := dbWriter.close(); err != nil {
		return fmt.Errorf("error closing SQLite logger: %w", err)
	}
	return nil
}

func Debug() *zerolog.Event { return current().Debug() }
func Info() *zerolog.Event  { return current().Info() }
func Warn() *zerolog.Event  { return current().Warn() }
func Error() *zerolog.Event { return current().Error() }

// Record starts an error-level event that is stored in the SQLite sink only.
// It is a no-op before Init. Use it for failures already reported to the user.
func Record() *zerolog.Event {
	mu.RLock()
	defer mu.RUnlock()
	return recordLogger.Error()
}

// Printf sends a log event using info level and no extra field.
// Arguments are handled in the manner of fmt.Printf.
func Printf(format string, v ...interface{}) {
	l := current()
	l.Info().CallerSkipFrame(1).Msgf(format, v...)
}

func current() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := pkgLogger
	return &l
}

// --- Log Retrieval Functions ---

type LogEntry struct {
	ID         int64
	InsertedAt time.Time
	LogData    string // The raw JSON string
}

const DefaultLimit = 100

func getHandle() (*sql.DB, error) {
	mu.RLock()
	defer mu.RUnlock()
	if dbHandle == nil {
		return nil, ErrNotInitialized
	}
	return dbHandle, nil
}

// parseDBTimestamp tries common SQLite timestamp formats.
func parseDBTimestamp(ts string) time.Time {
	formats := []string{
		"2006-01-02 15:04:05",
		time.RFC3339,
		time.RFC3339Nano,
		"2006-01-02 15:04:05.999",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, ts); err == nil {
			return t
		}
	}
	return time.Time{}
}

func scanEntries(rows *sql.Rows) ([]LogEntry, error) {
	defer rows.Close()
	var logs []LogEntry
	for rows.Next() {
		var entry LogEntry
		var insertedAtStr string
		if err := rows.Scan(&entry.ID, &insertedAtStr, &entry.LogData); err != nil {
			return nil, fmt.Errorf("failed to scan log entry: %w", err)
		}
		entry.InsertedAt = parseDBTimestamp(insertedAtStr)
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating log rows: %w", err)
	}
	return logs, nil
}

// GetLastNLogs retrieves the most recent 'n' log entries, oldest first.
// Returns ErrNotInitialized if log.Init() has not been called.
func GetLastNLogs(n int) ([]LogEntry, error) {
	handle, err := getHandle()
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		return []LogEntry{}, nil
	}

	rows, err := handle.Query(`SELECT id, inserted_at, log_data FROM logs ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query last %d logs: %w", n, err)
	}
	logs, err := scanEntries(rows)
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(logs)-1; i < j; i, j = i+1, j-1 {
		logs[i], logs[j] = logs[j], logs[i]
	}
	return logs, nil
}

// GetLogsBetween retrieves log entries whose JSON 'time' field falls within
// [start, end], in chronological order. A limit <= 0 means DefaultLimit.
func GetLogsBetween(start, end time.Time, limit int) ([]LogEntry, error) {
	handle, err := getHandle()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	startTimeStr := start.UTC().Format(zerologTimeFieldFormat)
	endTimeStr := end.UTC().Format(zerologTimeFieldFormat)

	query := `
        SELECT id, inserted_at, log_data
        FROM logs
        WHERE json_extract(log_data, '$.time') >= ? AND json_extract(log_data, '$.time') <= ?
        ORDER BY json_extract(log_data, '$.time') ASC, id ASC
        LIMIT ?`

	rows, err := handle.Query(query, startTimeStr, endTimeStr, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query logs between %s and %s: %w", startTimeStr, endTimeStr, err)
	}
	return scanEntries(rows)
}

// GetLogsSince is GetLogsBetween(start, now, limit).
func GetLogsSince(start time.Time, limit int) ([]LogEntry, error) {
	return GetLogsBetween(start, time.Now(), limit)
}
