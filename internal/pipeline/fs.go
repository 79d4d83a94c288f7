package pipeline

import (
	"os"
	"sync"

	"github.com/scan-io-git/sariftool/pkg/shared/files"
)

const outputPerm = 0o644

// FileSystem is what the pipeline reads logs from and writes results to.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
	Stat(path string) (os.FileInfo, error)
	// WriteFileAtomic replaces path through a temporary file and a rename.
	WriteFileAtomic(path string, data []byte) error
	// WriteFileExclusive creates path and fails with fs.ErrExist if it exists.
	WriteFileExclusive(path string, data []byte) error
}

// OSFileSystem is the local file system.
type OSFileSystem struct{}

func (OSFileSystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (OSFileSystem) Stat(path string) (os.FileInfo, error) {
	return os.Stat(path)
}

func (OSFileSystem) WriteFileAtomic(path string, data []byte) error {
	return files.WriteFileAtomic(path, data, outputPerm)
}

func (OSFileSystem) WriteFileExclusive(path string, data []byte) error {
	return files.WriteFileExclusive(path, data, outputPerm)
}

// pathLocks serialises the exists-check and write of each destination.
type pathLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (l *pathLocks) lock(path string) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*sync.Mutex)
	}
	m, ok := l.locks[path]
	if !ok {
		m = &sync.Mutex{}
		l.locks[path] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
