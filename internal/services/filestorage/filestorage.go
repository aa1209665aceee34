package filestorage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cozy-creator/meme-engine/internal/config"
)

var (
	ErrEmptyFile    = errors.New("file has no content")
	ErrS3NotEnabled = errors.New("s3 config is not set")
)

type FileInfo struct {
	Name      string
	Extension string
	Content   []byte
}

// FileStorage persists rendered images. Upload returns where the file can be
// found: a local path or a public URL.
type FileStorage interface {
	Upload(file FileInfo) (string, error)
}

func NewFileInfo(name string, extension string, content []byte) FileInfo {
	return FileInfo{
		Name:      name,
		Extension: extension,
		Content:   content,
	}
}

func NewFileStorage(cfg *config.Config) (FileStorage, error) {
	switch strings.ToLower(cfg.Filesystem) {
	case config.FilesystemLocal:
		return NewLocalFileStorage(cfg.OutputDir), nil
	case config.FilesystemS3:
		return NewS3FileStorage(cfg)
	}

	return nil, fmt.Errorf("%w: %s", config.ErrInvalidFilesystem, cfg.Filesystem)
}

func (f FileInfo) filename() string {
	return f.Name + f.Extension
}
