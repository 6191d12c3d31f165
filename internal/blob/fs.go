package blob

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const metaSuffix = ".meta"

// FSStore stores bundles under a local directory. Each bundle is a data file
// plus a JSON metadata sidecar.
type FSStore struct {
	root string
	now  func() time.Time
}

type fsMeta struct {
	ContentType string            `json:"content_type,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	ETag        string            `json:"etag"`
	Size        int64             `json:"size_bytes"`
	CreatedAt   time.Time         `json:"created_at"`
}

// NewFSStore constructs a filesystem bundle store rooted at root, creating
// the directory if needed.
func NewFSStore(root string) (*FSStore, error) {
	if root == "" {
		return nil, fmt.Errorf("empty bundle root")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}
	return &FSStore{root: abs, now: time.Now}, nil
}

// Driver reports DriverFilesystem.
func (s *FSStore) Driver() Driver { return DriverFilesystem }

// sanitizeKey rejects keys that would escape the root directory.
func (s *FSStore) sanitizeKey(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("empty bundle key")
	}
	if strings.Contains(key, "..") || strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("invalid bundle key %q", key)
	}
	clean := filepath.Clean(key)
	if clean == "." || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("invalid bundle key %q", key)
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

// Put writes a new bundle atomically. Writing to an existing key fails.
func (s *FSStore) Put(_ context.Context, key string, r io.Reader, opts PutOptions) (Info, error) {
	path, err := s.sanitizeKey(key)
	if err != nil {
		return Info{}, err
	}
	if _, err := os.Stat(path); err == nil {
		return Info{}, fmt.Errorf("bundle %s already exists", key)
	} else if !os.IsNotExist(err) {
		return Info{}, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Info{}, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".bundle-*")
	if err != nil {
		return Info{}, err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	hasher := sha256.New()
	size, err := io.Copy(io.MultiWriter(tmp, hasher), r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return Info{}, err
	}

	meta := fsMeta{
		ContentType: opts.ContentType,
		Metadata:    cloneMetadata(opts.Metadata),
		ETag:        hex.EncodeToString(hasher.Sum(nil)),
		Size:        size,
		CreatedAt:   s.now().UTC(),
	}
	encoded, err := json.Marshal(meta)
	if err != nil {
		return Info{}, err
	}
	if err := os.WriteFile(path+metaSuffix, encoded, 0o644); err != nil {
		return Info{}, err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(path + metaSuffix)
		return Info{}, err
	}
	return s.infoFromMeta(key, meta), nil
}

// Get opens the bundle for reading.
func (s *FSStore) Get(ctx context.Context, key string) (Info, io.ReadCloser, error) {
	info, err := s.Head(ctx, key)
	if err != nil {
		return Info{}, nil, err
	}
	path, err := s.sanitizeKey(key)
	if err != nil {
		return Info{}, nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return Info{}, nil, err
	}
	return info, f, nil
}

// Head returns the bundle descriptor from its sidecar.
func (s *FSStore) Head(_ context.Context, key string) (Info, error) {
	path, err := s.sanitizeKey(key)
	if err != nil {
		return Info{}, err
	}
	meta, err := readMeta(path + metaSuffix)
	if err != nil {
		if os.IsNotExist(err) {
			return Info{}, fmt.Errorf("bundle %s not found", key)
		}
		return Info{}, err
	}
	return s.infoFromMeta(key, meta), nil
}

// Delete removes the bundle and its sidecar, reporting whether it existed.
func (s *FSStore) Delete(_ context.Context, key string) (bool, error) {
	path, err := s.sanitizeKey(key)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	if err := os.Remove(path); err != nil {
		return false, err
	}
	_ = os.Remove(path + metaSuffix)
	return true, nil
}

// List walks the root and returns descriptors for bundles under prefix,
// sorted by key.
func (s *FSStore) List(_ context.Context, prefix string) ([]Info, error) {
	var out []Info
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasSuffix(path, metaSuffix) {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if prefix != "" && !strings.HasPrefix(key, prefix) {
			return nil
		}
		meta, err := readMeta(path + metaSuffix)
		if err != nil {
			return err
		}
		out = append(out, s.infoFromMeta(key, meta))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// PresignURL is not supported by the filesystem driver.
func (s *FSStore) PresignURL(context.Context, string, SignedURLOptions) (string, error) {
	return "", ErrUnsupported
}

func (s *FSStore) infoFromMeta(key string, meta fsMeta) Info {
	return Info{
		Key:          key,
		Size:         meta.Size,
		ContentType:  meta.ContentType,
		ETag:         meta.ETag,
		Metadata:     cloneMetadata(meta.Metadata),
		LastModified: meta.CreatedAt,
		URL:          "file://" + filepath.ToSlash(filepath.Join(s.root, key)),
	}
}

func readMeta(path string) (fsMeta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fsMeta{}, err
	}
	var meta fsMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return fsMeta{}, fmt.Errorf("decode sidecar %s: %w", path, err)
	}
	return meta, nil
}
