package store

import (
	"path/filepath"
	"strings"

	"github.com/peterbourgon/diskv/v3"
	"github.com/pkg/errors"
	"github.com/rs/xid"
	"github.com/rs/zerolog/log"
)

const backupPrefix = "backups/"

// Storage is the key/value surface the database and state files are persisted through.
type Storage interface {
	Has(key string) bool
	Read(key string) ([]byte, error)
	Write(key string, val []byte) error
}

// Store keeps JSON documents under a base directory. Every write goes to a temp file
// first and is renamed over the target, so a crash never leaves a half-written file.
type Store struct {
	dataStore   *diskv.Diskv
	keepBackups bool
}

// New creates a Store rooted at basePath.
func New(basePath string, keepBackups bool) *Store {
	return &Store{
		dataStore: diskv.New(diskv.Options{
			BasePath:          basePath,
			TempDir:           filepath.Join(basePath, ".tmp"),
			AdvancedTransform: AdvancedTransform,
			InverseTransform:  InverseTransform,
			CacheSizeMax:      512 * 512,
		}),
		keepBackups: keepBackups,
	}
}

// Has reports whether key has been written.
func (s *Store) Has(key string) bool {
	return s.dataStore.Has(key)
}

// Read returns the stored value of key.
func (s *Store) Read(key string) ([]byte, error) {
	b, err := s.dataStore.Read(key)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", key)
	}
	return b, nil
}

// Write atomically replaces the value of key. With backups enabled the previous value
// is kept under backups/<key>-<id> first.
func (s *Store) Write(key string, val []byte) error {
	if s.keepBackups && !strings.HasPrefix(key, backupPrefix) && s.Has(key) {
		if _, err := s.Snapshot(key); err != nil {
			return err
		}
	}
	if err := s.dataStore.Write(key, val); err != nil {
		return errors.Wrapf(err, "writing %s", key)
	}
	log.Debug().Str("key", key).Int("bytes", len(val)).Msg("saved")
	return nil
}

// Snapshot copies the current value of key to a new backup key and returns that key.
// The xid suffix sorts backups in creation order.
func (s *Store) Snapshot(key string) (string, error) {
	b, err := s.Read(key)
	if err != nil {
		return "", err
	}
	backupKey := backupPrefix + key + "-" + xid.New().String()
	if err := s.dataStore.Write(backupKey, b); err != nil {
		return "", errors.Wrapf(err, "writing %s", backupKey)
	}
	log.Info().Str("key", key).Str("backup", backupKey).Msg("snapshot written")
	return backupKey, nil
}

// AdvancedTransform for storing KV pairs
func AdvancedTransform(key string) *diskv.PathKey {
	path := strings.Split(key, "/")
	last := len(path) - 1
	return &diskv.PathKey{
		Path:     path[:last],
		FileName: path[last] + ".json",
	}
}

// InverseTransform for storing KV pairs
func InverseTransform(pathKey *diskv.PathKey) (key string) {
	name, ok := strings.CutSuffix(pathKey.FileName, ".json")
	if !ok {
		panic("Invalid file found in storage folder!")
	}
	if len(pathKey.Path) == 0 {
		return name
	}
	return strings.Join(pathKey.Path, "/") + "/" + name
}
