package storage

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// localStorage implements Storage on a local directory tree. Staged files
// live next to their final location so promotion is a same-directory rename.
type localStorage struct {
	root  string
	permF os.FileMode
	permD os.FileMode
}

// NewLocal creates a filesystem-backed storage rooted at dir, creating it if missing.
func NewLocal(dir string) (Storage, error) {
	if dir == "" {
		return nil, fmt.Errorf("local storage dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &localStorage{root: dir, permF: 0o644, permD: 0o755}, nil
}

func (l *localStorage) path(key string) (string, error) {
	k, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(l.root, filepath.FromSlash(k)), nil
}

// Stage writes r to a hidden sibling of key and fsyncs it.
func (l *localStorage) Stage(ctx context.Context, key string, r io.Reader, _ PutObjectOptions) (Staged, error) {
	if err := ctx.Err(); err != nil {
		return Staged{}, err
	}
	k, err := cleanKey(key)
	if err != nil {
		return Staged{}, err
	}
	tmpKey := stagingName(k, uuid.NewString())
	tmpPath, _ := l.path(tmpKey)
	if err := os.MkdirAll(filepath.Dir(tmpPath), l.permD); err != nil {
		return Staged{}, fmt.Errorf("create dir: %w", err)
	}

	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, l.permF)
	if err != nil {
		return Staged{}, fmt.Errorf("create staged file: %w", err)
	}
	bw := bufio.NewWriterSize(f, 64*1024)
	if _, err := io.Copy(bw, r); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return Staged{}, fmt.Errorf("write staged file: %w", err)
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return Staged{}, fmt.Errorf("flush staged file: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return Staged{}, fmt.Errorf("sync staged file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return Staged{}, fmt.Errorf("close staged file: %w", err)
	}
	return Staged{Key: k, TempKey: tmpKey}, nil
}

// Promote renames the staged file over its final name and syncs the directory.
func (l *localStorage) Promote(_ context.Context, s Staged) error {
	src, err := l.path(s.TempKey)
	if err != nil {
		return err
	}
	dst, err := l.path(s.Key)
	if err != nil {
		return err
	}
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("promote %s: %w", s.Key, err)
	}
	syncDir(filepath.Dir(dst))
	return nil
}

func (l *localStorage) Discard(_ context.Context, s Staged) error {
	p, err := l.path(s.TempKey)
	if err != nil {
		return err
	}
	return removeIfExists(p)
}

func (l *localStorage) Delete(_ context.Context, key string) error {
	p, err := l.path(key)
	if err != nil {
		return err
	}
	return removeIfExists(p)
}

func (l *localStorage) Get(_ context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	p, err := l.path(key)
	if err != nil {
		return nil, ObjectInfo{}, err
	}
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ObjectInfo{}, ErrNotFound
		}
		return nil, ObjectInfo{}, fmt.Errorf("open file: %w", err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, ObjectInfo{}, fmt.Errorf("stat file: %w", err)
	}
	if st.IsDir() {
		f.Close()
		return nil, ObjectInfo{}, ErrNotFound
	}
	info := ObjectInfo{
		Key:          key,
		Size:         st.Size(),
		ContentType:  mime.TypeByExtension(filepath.Ext(p)),
		LastModified: st.ModTime(),
	}
	return f, info, nil
}

func removeIfExists(p string) error {
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", filepath.Base(p), err)
	}
	return nil
}

// syncDir makes a rename durable. Failure is ignored; some platforms cannot
// fsync directories.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
