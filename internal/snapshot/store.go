package snapshot

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Save writes an encoded snapshot to path as a YAML sequence.
//
// The parent directory is created (0700) and the file is replaced atomically
// through a temp file in the same directory, ending with 0600 permissions.
func Save(path string, fields []any) error {
	if path == "" {
		return errors.New("snapshot: path is empty")
	}

	data, err := yaml.Marshal(fields)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".jcal-session-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Load reads a snapshot written by Save. A missing file is reported as an
// error wrapping fs.ErrNotExist; malformed YAML as a *DecodeError.
func Load(path string) ([]any, error) {
	if path == "" {
		return nil, errors.New("snapshot: path is empty")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var fields []any
	if err := yaml.Unmarshal(data, &fields); err != nil {
		return nil, &DecodeError{Index: -1, Reason: "malformed snapshot file", Err: err}
	}
	return fields, nil
}
