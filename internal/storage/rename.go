package storage

import (
	"errors"
	"io/fs"
	"os"
)

// renameIfAbsent is the portable no-replace rename. Regular files are
// hard-linked to dst, which fails with EEXIST when dst exists, and then
// unlinked from src. Directories, and filesystems without hard links, fall
// back to check-then-rename; a concurrent creator of dst can win that window.
func renameIfAbsent(src, dst string) error {
	info, err := os.Lstat(src)
	if err != nil {
		return err
	}
	if info.Mode().IsRegular() {
		err := os.Link(src, dst)
		if err == nil {
			if err := os.Remove(src); err != nil {
				_ = os.Remove(dst)
				return err
			}
			return nil
		}
		if errors.Is(err, fs.ErrExist) {
			return err
		}
	}

	if _, err := os.Lstat(dst); err == nil {
		return &os.LinkError{Op: "rename", Old: src, New: dst, Err: fs.ErrExist}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.Rename(src, dst)
}
