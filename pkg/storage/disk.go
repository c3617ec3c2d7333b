package storage

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// DiskUsage describes the filesystem hosting a storage tree.
type DiskUsage struct {
	TotalBytes uint64 `json:"total_bytes"`
	UsedBytes  uint64 `json:"used_bytes"`
	FreeBytes  uint64 `json:"free_bytes"`
}

// ReadDiskUsage reports capacity for the filesystem containing path. The
// admin status endpoint exposes this for the data root.
func ReadDiskUsage(path string) (DiskUsage, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return DiskUsage{}, fmt.Errorf("failed to read disk usage for %s: %w", path, err)
	}
	bs := uint64(st.Bsize)
	return DiskUsage{
		TotalBytes: bs * st.Blocks,
		UsedBytes:  bs * (st.Blocks - st.Bfree),
		FreeBytes:  bs * st.Bavail,
	}, nil
}

// DiskUsage reports capacity for the filesystem hosting this store.
func (s *Store) DiskUsage() (DiskUsage, error) {
	return ReadDiskUsage(s.base)
}
