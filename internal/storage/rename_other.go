//go:build !linux

package storage

func renameNoReplace(src, dst string) error {
	return renameIfAbsent(src, dst)
}
