//go:build !unix

package filestore

import "os"

// Without flock the in-process mutex is the only guard.
type fileLock struct {
	f *os.File
}

func openFileLock(path string) (*fileLock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}
	return &fileLock{f: f}, nil
}

func (l *fileLock) lock(bool) error { return nil }

func (l *fileLock) unlock() error { return nil }

func (l *fileLock) close() error {
	return l.f.Close()
}
