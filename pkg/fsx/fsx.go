// SPDX-License-Identifier: Apache-2.0

// Package fsx probes filesystem capacity.
package fsx

import (
	"github.com/joomcode/errorx"
	"golang.org/x/sys/unix"
)

// DiskSpace reports the capacity of the filesystem holding a path.
type DiskSpace struct {
	FreeBytes  uint64
	TotalBytes uint64
}

// FreeGB returns the free space in whole gigabytes.
func (d DiskSpace) FreeGB() uint64 {
	return d.FreeBytes / (1024 * 1024 * 1024)
}

// TotalGB returns the total space in whole gigabytes.
func (d DiskSpace) TotalGB() uint64 {
	return d.TotalBytes / (1024 * 1024 * 1024)
}

// StatDiskSpace returns the free and total bytes of the filesystem that
// contains path. Free space is what an unprivileged process can use, so it
// excludes the blocks reserved for root.
func StatDiskSpace(path string) (DiskSpace, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return DiskSpace{}, errorx.ExternalError.Wrap(err, "failed to statfs %s", path)
	}

	blockSize := uint64(stat.Bsize)
	return DiskSpace{
		FreeBytes:  stat.Bavail * blockSize,
		TotalBytes: stat.Blocks * blockSize,
	}, nil
}
