package storage

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// FilesystemStorage implements the Storage interface against the local
// filesystem. Used for standalone deployments and tests.
type FilesystemStorage struct {
	Config Config
}

// NewFilesystemStorage returns a filesystem backed store rooted at
// Config.Root/Config.Bucket.
func NewFilesystemStorage(config Config) FilesystemStorage {
	return FilesystemStorage{
		Config: config,
	}
}

// Write writes the data to the key.
func (f FilesystemStorage) Write(ctx context.Context, key string, body []byte, options *Options) error {
	if options == nil {
		opts := NewOptions()
		options = &opts
	}

	filename := f.buildPath(key)

	if err := f.ensureExists(path.Dir(filename), options); err != nil {
		return err
	}

	mode := options.Mode
	if mode == 0 {
		mode = 0644
	}

	return os.WriteFile(filename, body, mode)
}

// Read reads the data stored at key.
func (f FilesystemStorage) Read(ctx context.Context, key string) ([]byte, error) {
	filename := f.buildPath(key)

	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return nil, ErrNotFound
	}

	return os.ReadFile(filename)
}

// Remove removes the object stored at key.
func (f FilesystemStorage) Remove(ctx context.Context, key string) error {
	filename := f.buildPath(key)

	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return ErrNotFound
	}

	return os.Remove(filename)
}

// List returns the keys of the objects directly under a path prefix.
func (f FilesystemStorage) List(ctx context.Context, prefix string) ([]string, error) {
	dir := f.buildPath(prefix)

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		keys = append(keys, strings.Join([]string{prefix, entry.Name()}, "/"))
	}

	return keys, nil
}

func (f FilesystemStorage) buildPath(key string) string {
	parts := []string{
		f.Config.Root,
		f.Config.Bucket,
	}

	if len(key) > 0 {
		parts = append(parts, key)
	}

	return filepath.FromSlash(strings.Join(parts, "/"))
}

func (f FilesystemStorage) ensureExists(dir string, options *Options) error {
	if options == nil {
		opts := NewOptions()
		options = &opts
	}

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, options.DirMode)
	}

	return nil
}
