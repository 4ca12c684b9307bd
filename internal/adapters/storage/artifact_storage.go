package storage

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/emiliopalmerini/mhouse/internal/util"
)

// DefaultModelFile and DefaultDatasetFile are looked up in the XDG data dir
// when no explicit path is configured.
const (
	DefaultModelFile   = "model.json"
	DefaultDatasetFile = "train.csv"
)

// DefaultPath returns name inside the mhouse XDG data directory.
func DefaultPath(name string) (string, error) {
	baseDir, err := util.GetXDGDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(baseDir, name), nil
}

// Open opens a model artifact or dataset for reading. Files ending in .gz are
// decompressed transparently.
func Open(path string) (io.ReadCloser, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	if !strings.HasSuffix(path, ".gz") {
		return file, nil
	}

	gr, err := gzip.NewReader(file)
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	return &gzipFile{Reader: gr, file: file}, nil
}

// Exists reports whether path names a readable regular file.
func Exists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err == nil {
		return info.Mode().IsRegular(), nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

type gzipFile struct {
	*gzip.Reader
	file *os.File
}

func (g *gzipFile) Close() error {
	gzErr := g.Reader.Close()
	if err := g.file.Close(); err != nil {
		return err
	}
	return gzErr
}
