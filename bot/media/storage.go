// Package media persists received attachments as byte dumps on disk and
// derives public URLs for them. When no storage is configured the bot
// keeps opaque Telegram file references instead.
package media

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/druk3d/servicebot/core/logger"
)

// Kind selects the subtree a file lands in.
type Kind string

const (
	KindPhoto Kind = "photo"
	KindVideo Kind = "video"
)

func (k Kind) subdir() string {
	if k == KindVideo {
		return "videos"
	}
	return "photos"
}

func (k Kind) ext() string {
	if k == KindVideo {
		return ".mp4"
	}
	return ".jpg"
}

// Storage writes attachment bytes under
// <dir>/{photos,videos}/<user_id>/<yyyymmdd>_<uuid>.<ext>.
type Storage struct {
	dir     string
	baseURL string
}

// NewStorage prepares the directory tree. An empty dir is invalid.
func NewStorage(dir, baseURL string) (*Storage, error) {
	if dir == "" {
		return nil, fmt.Errorf("media: empty storage dir")
	}
	for _, sub := range []string{"photos", "videos"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("media: create %s dir: %w", sub, err)
		}
	}
	logger.Media.Info("media storage ready",
		slog.String("event", "media.init"),
		slog.String("path", dir),
	)
	return &Storage{dir: dir, baseURL: baseURL}, nil
}

// Save persists one attachment and returns its path and public URL.
func (s *Storage) Save(userID int64, kind Kind, data []byte) (string, string, error) {
	userDir := filepath.Join(s.dir, kind.subdir(), strconv.FormatInt(userID, 10))
	if err := os.MkdirAll(userDir, 0o755); err != nil {
		return "", "", fmt.Errorf("media: create user dir: %w", err)
	}

	name := time.Now().Format("20060102") + "_" + uuid.NewString() + kind.ext()
	path := filepath.Join(userDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", "", fmt.Errorf("media: write file: %w", err)
	}

	url := s.URL(kind, userID, name)
	logger.Media.Debug("file stored",
		slog.String("event", "media.save"),
		slog.Int64("user_id", userID),
		slog.String("path", path),
		slog.Int("count", len(data)),
	)
	return path, url, nil
}

// URL derives the public URL of a stored file.
func (s *Storage) URL(kind Kind, userID int64, name string) string {
	if s.baseURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/media/%s/%d/%s", s.baseURL, kind.subdir(), userID, name)
}
