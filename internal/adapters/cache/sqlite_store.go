package cache

import (
	"bytes"
	"compress/zlib"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikey/awb-scanner/internal/core"
	"go.uber.org/zap"
)

// SQLiteStore is a SQLite-backed implementation of the CacheStore
// interface for deployments that prefer an embedded database over a flat
// file. Bodies are zlib-compressed blobs; a whole save runs in one
// transaction so the previous corpus survives a failed write.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore opens (and if needed initializes) the cache database
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS mail_cache (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			date TIMESTAMP,
			subject TEXT,
			body BLOB,
			sender TEXT,
			recipients TEXT,
			has_attachments BOOLEAN
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create mail_cache table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS cache_meta (
			key TEXT PRIMARY KEY,
			value TEXT
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache_meta table: %w", err)
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

// Load reads the persisted corpus in insertion order. Any failure degrades
// to an empty record.
func (s *SQLiteStore) Load(ctx context.Context) *core.CacheRecord {
	record := &core.CacheRecord{}

	rows, err := s.db.QueryContext(ctx, `
		SELECT date, subject, body, sender, recipients, has_attachments
		FROM mail_cache
		ORDER BY seq
	`)
	if err != nil {
		s.logger.Error("Failed to query mail cache", zap.Error(err))
		return record
	}
	defer rows.Close()

	for rows.Next() {
		var (
			date           time.Time
			subject        string
			body           []byte
			sender         string
			recipients     string
			hasAttachments bool
		)
		if err := rows.Scan(&date, &subject, &body, &sender, &recipients, &hasAttachments); err != nil {
			s.logger.Error("Failed to scan cached message", zap.Error(err))
			return &core.CacheRecord{}
		}

		inflated, err := inflateBlob(body)
		if err != nil {
			s.logger.Warn("Failed to decompress cached body", zap.String("subject", subject), zap.Error(err))
			continue
		}

		var to []string
		if recipients != "" {
			if err := json.Unmarshal([]byte(recipients), &to); err != nil {
				s.logger.Warn("Failed to decode recipients", zap.Error(err))
			}
		}

		record.Messages = append(record.Messages, core.Message{
			Date:           date,
			Subject:        subject,
			Body:           inflated,
			Sender:         sender,
			To:             to,
			HasAttachments: hasAttachments,
		})
	}
	if err := rows.Err(); err != nil {
		s.logger.Error("Failed to read mail cache", zap.Error(err))
		return &core.CacheRecord{}
	}

	var stamp string
	err = s.db.QueryRowContext(ctx, `SELECT value FROM cache_meta WHERE key = 'last_refresh'`).Scan(&stamp)
	if err == nil {
		if t, err := time.Parse(time.RFC3339, stamp); err == nil {
			record.LastRefresh = &t
		}
	} else if err != sql.ErrNoRows {
		s.logger.Warn("Failed to read last refresh stamp", zap.Error(err))
	}

	return record
}

// Save replaces the stored corpus with the truncated record inside a
// single transaction.
func (s *SQLiteStore) Save(ctx context.Context, record *core.CacheRecord, maxMessages int) error {
	messages := record.Messages
	if maxMessages > 0 && len(messages) > maxMessages {
		messages = messages[:maxMessages]
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin cache transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM mail_cache`); err != nil {
		return fmt.Errorf("failed to clear mail cache: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO mail_cache (date, subject, body, sender, recipients, has_attachments)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare cache insert: %w", err)
	}
	defer stmt.Close()

	for _, msg := range messages {
		recipients, err := json.Marshal(msg.To)
		if err != nil {
			return fmt.Errorf("failed to encode recipients: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, msg.Date, msg.Subject, deflateBlob(msg.Body), msg.Sender, string(recipients), msg.HasAttachments); err != nil {
			return fmt.Errorf("failed to insert cached message: %w", err)
		}
	}

	now := time.Now()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO cache_meta (key, value) VALUES ('last_refresh', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, now.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to stamp last refresh: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cache transaction: %w", err)
	}

	record.LastRefresh = &now
	s.logger.Debug("Cache saved", zap.Int("messages", len(messages)))
	return nil
}

// Stop closes the database connection
func (s *SQLiteStore) Stop() {
	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close SQLite database", zap.Error(err))
	}
}

func deflateBlob(body string) []byte {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	w.Write([]byte(body))
	w.Close()
	return buf.Bytes()
}

func inflateBlob(blob []byte) (string, error) {
	r, err := zlib.NewReader(bytes.NewReader(blob))
	if err != nil {
		return "", err
	}
	defer r.Close()

	inflated, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(inflated), nil
}
