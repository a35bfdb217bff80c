// Package testhelper provides stand-ins for backend.Storage used to exercise
// the block device layer's error paths without a real backing store.
package testhelper

type reader func(b []byte, offset int64) (int, error)
type writer func(b []byte, offset int64) (int, error)

// StorageImpl implements backend.Storage with swappable Reader/Writer funcs,
// so tests can inject I/O failures (e.g. simulate disk.ErrUninitialized's
// sibling case, a backend that fails partway through) that a real ram.Storage
// cannot produce.
type StorageImpl struct {
	Reader reader
	Writer writer
	Sz     int64
}

// ReadAt reads at a particular offset.
func (f *StorageImpl) ReadAt(b []byte, offset int64) (int, error) {
	return f.Reader(b, offset)
}

// WriteAt writes at a particular offset.
func (f *StorageImpl) WriteAt(b []byte, offset int64) (int, error) {
	return f.Writer(b, offset)
}

// Close is a no-op; there is nothing real to release.
func (f *StorageImpl) Close() error {
	return nil
}

// Size returns the configured addressable size.
func (f *StorageImpl) Size() int64 {
	return f.Sz
}
