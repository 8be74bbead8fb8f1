// SPDX-License-Identifier: Apache-2.0

// Package sysctl reads the kernel parameters that size PostgreSQL shared
// memory. The check command snapshots them; nothing here writes.
package sysctl

import (
	"github.com/lorenzosaino/go-sysctl"
)

const DefaultPath = sysctl.DefaultPath

// Shared memory parameters consulted by the PostgreSQL server. Modern
// kernels default both high enough; old or tuned-down hosts are worth a
// warning before provisioning databases.
const (
	KeyShmMax = "kernel.shmmax"
	KeyShmAll = "kernel.shmall"
)

// use var to allow mocking in tests
var get = sysctl.Get

// SharedMemoryKeys returns the parameters the check command snapshots.
func SharedMemoryKeys() []string {
	return []string{KeyShmMax, KeyShmAll}
}

// Snapshot reads the given kernel parameters. Keys that cannot be read are
// returned in missing instead of failing the snapshot; a parameter absent
// on an exotic kernel is a warning, not an error.
func Snapshot(keys ...string) (map[string]string, []string) {
	values := make(map[string]string, len(keys))
	var missing []string

	for _, key := range keys {
		v, err := get(key)
		if err != nil {
			missing = append(missing, key)
			continue
		}
		values[key] = v
	}

	return values, missing
}
