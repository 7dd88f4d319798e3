/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package roster

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// FileStorage keeps each key in its own JSON file inside dir. Several
// processes may share one directory.
type FileStorage struct {
	dir string
}

func NewFileStorage(dir string) (*FileStorage, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("storage directory is required")
	}

	dir = filepath.Clean(dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}

	return &FileStorage{dir: dir}, nil
}

func (f *FileStorage) path(key string) string {
	return filepath.Join(f.dir, url.PathEscape(key)+".json")
}

func (f *FileStorage) Get(key string) (string, bool, error) {
	data, err := os.ReadFile(f.path(key))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "", false, nil
	case err != nil:
		return "", false, err
	}

	return string(data), true, nil
}

// Set replaces the file through a rename so readers never see a partial write.
func (f *FileStorage) Set(key, value string) error {
	target := f.path(key)

	tmp, err := os.CreateTemp(f.dir, "."+filepath.Base(target)+".*")
	if err != nil {
		return err
	}

	_, err = tmp.WriteString(value)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())

		return err
	}

	if err := os.Rename(tmp.Name(), target); err != nil {
		_ = os.Remove(tmp.Name())

		return err
	}

	return nil
}

func (f *FileStorage) Watch(ctx context.Context, key string, fn func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	if err := watcher.Add(f.dir); err != nil {
		_ = watcher.Close()

		return fmt.Errorf("watch %s: %w", f.dir, err)
	}

	target := f.path(key)

	go func() {
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) {
					fn()
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return nil
}
