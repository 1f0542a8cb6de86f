package restyutil

import (
	"log/slog"
	"path/filepath"

	"github.com/spf13/afero"
)

// FilesystemOutput writes one file per exchange, named after its message id.
type FilesystemOutput struct {
	fs        afero.Fs
	directory string
}

// NewFilesystemOutput clears dir and recreates it on fs.
func NewFilesystemOutput(fs afero.Fs, dir string) (FilesystemOutput, error) {
	err := fs.RemoveAll(dir)
	if err != nil {
		return FilesystemOutput{}, err
	}
	err = fs.MkdirAll(dir, 0777)
	if err != nil {
		return FilesystemOutput{}, err
	}
	return FilesystemOutput{fs: fs, directory: dir}, nil
}

func (o FilesystemOutput) Write(id string, contents string) {
	err := afero.WriteFile(o.fs, filepath.Join(o.directory, id), []byte(contents), 0600)
	if err != nil {
		slog.Warn("failed to write message info file", "id", id, "err", err)
	}
}
