// SPDX-License-Identifier: Apache-2.0

package hardware

import (
	"fmt"
	"runtime"

	"github.com/zcalusic/sysinfo"
	"golang.org/x/sys/unix"
)

// HostProfile provides an abstraction over system information gathering
// This interface allows for easier testing and separation of concerns
type HostProfile interface {
	// OS information
	GetOSVendor() string
	GetOSVersion() string
	GetKernelRelease() string

	// CPU information
	GetCPUCores() uint

	// Memory information (in GB)
	GetTotalMemoryGB() uint64

	String() string
}

// DefaultHostProfile implements HostProfile using the sysinfo library
type DefaultHostProfile struct {
	sysInfo sysinfo.SysInfo
}

// GetHostProfile creates a new DefaultHostProfile by gathering system information
func GetHostProfile() HostProfile {
	var si sysinfo.SysInfo
	si.GetSysInfo()

	return &DefaultHostProfile{
		sysInfo: si,
	}
}

// GetOSVendor returns the OS vendor/distribution name
func (d *DefaultHostProfile) GetOSVendor() string {
	return d.sysInfo.OS.Vendor
}

// GetOSVersion returns the OS version
func (d *DefaultHostProfile) GetOSVersion() string {
	return d.sysInfo.OS.Version
}

// GetKernelRelease returns the running kernel release
func (d *DefaultHostProfile) GetKernelRelease() string {
	return d.sysInfo.Kernel.Release
}

// GetCPUCores returns the number of logical CPU cores
func (d *DefaultHostProfile) GetCPUCores() uint {
	if d.sysInfo.CPU.Threads > 0 {
		return d.sysInfo.CPU.Threads
	}
	// sysinfo leaves CPU counts empty when /proc/cpuinfo is restricted
	return uint(runtime.NumCPU())
}

// GetTotalMemoryGB returns total system memory in GB
func (d *DefaultHostProfile) GetTotalMemoryGB() uint64 {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return 0
	}
	return uint64(info.Totalram) * uint64(info.Unit) / (1024 * 1024 * 1024)
}

func (d *DefaultHostProfile) String() string {
	return fmt.Sprintf("OS: %s %s, Kernel: %s, CPU: %d cores, Memory: %d GB",
		d.GetOSVendor(), d.GetOSVersion(), d.GetKernelRelease(),
		d.GetCPUCores(), d.GetTotalMemoryGB())
}
