// Package filesystem writes composition documents to local folders.  Writes
// go to a temporary file in the destination folder that is renamed over the
// final name, so a reader never sees a half-written document.
package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/turtacn/perovskite-json/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/perovskite-json/pkg/errors"
	ptypes "github.com/turtacn/perovskite-json/pkg/types/perovskite"
)

// Options configures a Store.  Zero permissions select 0644 and 0755.
type Options struct {
	DefaultFolder string      `mapstructure:"default_folder"`
	PermFile      os.FileMode `mapstructure:"perm_file"`
	PermDir       os.FileMode `mapstructure:"perm_dir"`
}

// Store is the filesystem DocumentRepository.
type Store struct {
	defaultFolder string
	permF         os.FileMode
	permD         os.FileMode
	logger        logging.Logger
}

func New(opts Options, log logging.Logger) *Store {
	if opts.PermFile == 0 {
		opts.PermFile = 0o644
	}
	if opts.PermDir == 0 {
		opts.PermDir = 0o755
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Store{
		defaultFolder: opts.DefaultFolder,
		permF:         opts.PermFile,
		permD:         opts.PermDir,
		logger:        log,
	}
}

// Path returns where dest would be written.  An empty folder falls back to
// the default folder, then to the working directory.
func (s *Store) Path(dest ptypes.Destination) string {
	folder := strings.TrimSpace(dest.Folder)
	if folder == "" {
		folder = s.defaultFolder
	}
	if folder == "" {
		folder = "."
	}
	return filepath.Join(folder, dest.FileName)
}

// Save writes data atomically, creating the folder if needed, and returns the
// final path.  An existing file is replaced.
func (s *Store) Save(ctx context.Context, dest ptypes.Destination, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if dest.FileName == "" || filepath.Base(dest.FileName) != dest.FileName {
		return "", errors.New(errors.ErrCodeInvalidFileName, "invalid document file name").
			WithDetail("name=" + dest.FileName)
	}

	path := s.Path(dest)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, s.permD); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeDocumentWrite, "create destination folder").WithDetail("folder=" + dir)
	}
	if err := s.writeAtomic(path, data); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeDocumentWrite, "write document").WithDetail("path=" + path)
	}

	s.logger.Debug("Document written", logging.String("path", path), logging.Int("bytes", len(data)))
	return path, nil
}

func (s *Store) writeAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmpName, s.permF); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Load reads the document at location, a path as returned by Save.
func (s *Store) Load(ctx context.Context, location string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(location)
	if os.IsNotExist(err) {
		return nil, errors.NotFound("document not found").WithCause(err).WithDetail("path=" + location)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDocumentRead, "read document").WithDetail("path=" + location)
	}
	return data, nil
}
