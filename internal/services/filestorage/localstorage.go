package filestorage

import (
	"fmt"
	"os"
	"path/filepath"
)

type LocalFileStorage struct {
	outputDir string
}

func NewLocalFileStorage(outputDir string) *LocalFileStorage {
	return &LocalFileStorage{outputDir: outputDir}
}

// Upload writes the file under the output directory and returns its path.
func (u *LocalFileStorage) Upload(file FileInfo) (string, error) {
	if len(file.Content) == 0 {
		return "", ErrEmptyFile
	}

	filedest := filepath.Join(u.outputDir, file.filename())
	if err := os.MkdirAll(filepath.Dir(filedest), os.ModePerm); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := os.WriteFile(filedest, file.Content, os.FileMode(0644)); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", filedest, err)
	}

	return filedest, nil
}
