package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	domain "github.com/bryanwahyu/assessly/internal/domain/assessments"
)

// Local stores artifacts under {root}/uploads with owner-keyed subdirs
// and resolves stored pointers across the historical naming conventions.
type Local struct {
	root string // project public dir, e.g. "public"
}

func NewLocal(root string) (*Local, error) {
	if root == "" {
		root = "public"
	}
	if err := os.MkdirAll(filepath.Join(root, "uploads"), 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &Local{root: root}, nil
}

// OwnerDir keys the directory by owner identity:
// uploads/{userId} | uploads/guest/{email} | uploads/guest/anonymous
func (s *Local) OwnerDir(userID *int64, guest *domain.Guest) string {
	if userID != nil {
		return filepath.Join("uploads", strconv.FormatInt(*userID, 10))
	}
	if guest != nil && guest.Email != "" {
		return filepath.Join("uploads", "guest", guest.Email)
	}
	return filepath.Join("uploads", "guest", "anonymous")
}

// Write persists bytes at the relative path, via temp file + rename so a
// failed write never leaves a partial artifact at the final path.
func (s *Local) Write(ctx context.Context, rel string, data []byte) (string, error) {
	rel = strings.TrimPrefix(rel, "/")
	abs := filepath.Join(s.root, rel)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", fmt.Errorf("create artifact dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(abs), ".artifact-*")
	if err != nil {
		return "", fmt.Errorf("create temp artifact: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("finalize artifact: %w", err)
	}
	return rel, nil
}

// Resolve tries candidates in order and returns the first that exists:
// the stored path literally, the path under the project root, and the
// leading-slash-stripped variant. Old rows stored all three shapes.
func (s *Local) Resolve(ctx context.Context, stored string) (string, error) {
	if strings.TrimSpace(stored) == "" {
		return "", domain.ErrArtifactMissing
	}
	candidates := []string{
		stored,
		filepath.Join(s.root, stored),
		filepath.Join(s.root, strings.TrimPrefix(stored, "/")),
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c, nil
		}
	}
	return "", domain.ErrArtifactMissing
}
