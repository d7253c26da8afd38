package cache

import (
	"bytes"
	"compress/zlib"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mikey/awb-scanner/internal/core"
	"go.uber.org/zap"
)

// compressedTag marks a message body that was compressed before being
// written, so a reader can tell it apart from literal text.
const compressedTag = "compressed:"

// cacheDocument is the on-disk shape of the corpus
type cacheDocument struct {
	Messages    []messageRecord `json:"messages"`
	LastRefresh *time.Time      `json:"last_refresh"`
}

type messageRecord struct {
	Date           time.Time `json:"date"`
	Subject        string    `json:"subject"`
	Body           string    `json:"body"`
	Sender         string    `json:"sender"`
	To             []string  `json:"to"`
	HasAttachments bool      `json:"has_attachments"`
}

// FileStore persists the message corpus as a single JSON document with
// per-body compression. Writes go through a temporary file that is renamed
// over the real one only after the write fully succeeds, so a failed save
// never corrupts the previous cache. Callers must serialize saves; the
// rename alone does not arbitrate concurrent writers.
type FileStore struct {
	path             string
	dir              string
	maxSizeMB        int
	cleanupThreshold float64
	retention        time.Duration
	logger           *zap.Logger
}

// NewFileStore creates a file-backed cache store and ensures its directory
// exists.
func NewFileStore(path string, maxSizeMB int, cleanupThreshold float64, retention time.Duration, logger *zap.Logger) (*FileStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	return &FileStore{
		path:             path,
		dir:              dir,
		maxSizeMB:        maxSizeMB,
		cleanupThreshold: cleanupThreshold,
		retention:        retention,
		logger:           logger,
	}, nil
}

// Load reads the persisted corpus and inflates compressed bodies. Any read
// or parse failure degrades to an empty record.
func (s *FileStore) Load(ctx context.Context) *core.CacheRecord {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Error("Failed to read cache file", zap.String("path", s.path), zap.Error(err))
		}
		return &core.CacheRecord{}
	}

	var doc cacheDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.Error("Failed to parse cache file", zap.String("path", s.path), zap.Error(err))
		return &core.CacheRecord{}
	}

	record := &core.CacheRecord{LastRefresh: doc.LastRefresh}
	for _, rec := range doc.Messages {
		body, err := inflateBody(rec.Body)
		if err != nil {
			s.logger.Warn("Failed to decompress message body, keeping raw value",
				zap.String("subject", rec.Subject),
				zap.Error(err))
			body = rec.Body
		}
		record.Messages = append(record.Messages, core.Message{
			Date:           rec.Date,
			Subject:        rec.Subject,
			Body:           body,
			Sender:         rec.Sender,
			To:             rec.To,
			HasAttachments: rec.HasAttachments,
		})
	}

	return record
}

// Save writes the corpus back to disk: truncate to maxMessages, compress
// every body, stamp last_refresh, write a temporary file, then atomically
// replace the cache file. On any failure the temporary file is removed and
// the previous cache file is left intact.
func (s *FileStore) Save(ctx context.Context, record *core.CacheRecord, maxMessages int) error {
	s.enforceSizeLimit()

	messages := record.Messages
	if maxMessages > 0 && len(messages) > maxMessages {
		messages = messages[:maxMessages]
	}

	now := time.Now()
	doc := cacheDocument{
		Messages:    make([]messageRecord, 0, len(messages)),
		LastRefresh: &now,
	}
	for _, msg := range messages {
		doc.Messages = append(doc.Messages, messageRecord{
			Date:           msg.Date,
			Subject:        msg.Subject,
			Body:           deflateBody(msg.Body),
			Sender:         msg.Sender,
			To:             msg.To,
			HasAttachments: msg.HasAttachments,
		})
	}

	data, err := json.MarshalIndent(&doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode cache document: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temporary cache file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace cache file: %w", err)
	}

	record.LastRefresh = &now
	s.logger.Debug("Cache saved",
		zap.String("path", s.path),
		zap.Int("messages", len(doc.Messages)))
	return nil
}

// enforceSizeLimit checks the total cache footprint and, past the
// configured fraction of the maximum, deletes cache files older than the
// retention window. Eviction is strictly age-based.
func (s *FileStore) enforceSizeLimit() {
	var total int64
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		total += info.Size()
		return nil
	})
	if err != nil {
		s.logger.Warn("Failed to measure cache footprint", zap.Error(err))
		return
	}

	limit := float64(s.maxSizeMB) * 1024 * 1024 * s.cleanupThreshold
	if float64(total) <= limit {
		return
	}

	s.logger.Info("Cache footprint over threshold, evicting stale files",
		zap.Int64("total_bytes", total))
	s.evictStale()
}

// evictStale deletes cache files whose modification time is past the
// retention window.
func (s *FileStore) evictStale() {
	cutoff := time.Now().Add(-s.retention)

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Warn("Failed to list cache directory", zap.Error(err))
		return
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			path := filepath.Join(s.dir, entry.Name())
			if err := os.Remove(path); err != nil {
				s.logger.Warn("Failed to evict cache file", zap.String("path", path), zap.Error(err))
			} else {
				s.logger.Debug("Evicted stale cache file", zap.String("path", path))
			}
		}
	}
}

// deflateBody compresses a message body and tags it so Load can tell it
// apart from literal text.
func deflateBody(body string) string {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write([]byte(body)); err != nil {
		w.Close()
		return body
	}
	if err := w.Close(); err != nil {
		return body
	}
	return compressedTag + hex.EncodeToString(buf.Bytes())
}

// inflateBody reverses deflateBody; untagged bodies pass through as-is
func inflateBody(body string) (string, error) {
	if !strings.HasPrefix(body, compressedTag) {
		return body, nil
	}

	raw, err := hex.DecodeString(strings.TrimPrefix(body, compressedTag))
	if err != nil {
		return "", fmt.Errorf("failed to decode compressed body: %w", err)
	}

	r, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("failed to open compressed body: %w", err)
	}
	defer r.Close()

	inflated, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to decompress body: %w", err)
	}
	return string(inflated), nil
}
