package paging

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileBacking stores each spilled shell as a zstd file under
// dir/gen-<n>/shell-<x>.zst.
type FileBacking struct {
	dir string
}

func NewFileBacking(dir string) (*FileBacking, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileBacking{dir: dir}, nil
}

func (b *FileBacking) genDir(gen uint64) string {
	return filepath.Join(b.dir, fmt.Sprintf("gen-%d", gen))
}

func (b *FileBacking) path(k Key) string {
	return filepath.Join(b.genDir(k.Generation), fmt.Sprintf("shell-%d.zst", k.Shell))
}

func (b *FileBacking) Save(k Key, cells []int64) error {
	path := b.path(k)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, encodeBlock(cells), 0o644); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func (b *FileBacking) Load(k Key) ([]int64, error) {
	data, err := os.ReadFile(b.path(k))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrBlockUnavailable, k)
	}
	if err != nil {
		return nil, err
	}
	return decodeBlock(data)
}

func (b *FileBacking) Drop(gen uint64) error {
	return os.RemoveAll(b.genDir(gen))
}

// Close is a no-op; spilled files stay until dropped.
func (b *FileBacking) Close() error { return nil }
