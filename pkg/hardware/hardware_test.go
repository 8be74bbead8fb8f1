package hardware

import (
	"strings"
	"testing"
)

// MockHostProfile is a testable implementation of HostProfile
type MockHostProfile struct {
	OSVendor      string
	OSVersion     string
	KernelRelease string
	CPUCores      uint
	TotalMemoryGB uint64
}

// NewMockHostProfile creates a new MockHostProfile for testing
func NewMockHostProfile(osVendor, osVersion string, cpuCores uint, memoryGB uint64) HostProfile {
	return &MockHostProfile{
		OSVendor:      osVendor,
		OSVersion:     osVersion,
		KernelRelease: "6.1.0-mock",
		CPUCores:      cpuCores,
		TotalMemoryGB: memoryGB,
	}
}

func (m *MockHostProfile) GetOSVendor() string      { return m.OSVendor }
func (m *MockHostProfile) GetOSVersion() string     { return m.OSVersion }
func (m *MockHostProfile) GetKernelRelease() string { return m.KernelRelease }
func (m *MockHostProfile) GetCPUCores() uint        { return m.CPUCores }
func (m *MockHostProfile) GetTotalMemoryGB() uint64 { return m.TotalMemoryGB }
func (m *MockHostProfile) String() string           { return "MockHostProfile" }

func TestMockHostProfile(t *testing.T) {
	// Test MockHostProfile implementation
	mock := NewMockHostProfile("debian", "12", 8, 16)

	if mock.GetOSVendor() != "debian" {
		t.Errorf("Expected OS vendor 'debian', got '%s'", mock.GetOSVendor())
	}

	if mock.GetOSVersion() != "12" {
		t.Errorf("Expected OS version '12', got '%s'", mock.GetOSVersion())
	}

	if mock.GetCPUCores() != 8 {
		t.Errorf("Expected 8 CPU cores, got %d", mock.GetCPUCores())
	}

	expectedMemory := uint64(16)
	if mock.GetTotalMemoryGB() != expectedMemory {
		t.Errorf("Expected %d GB of memory, got %d", expectedMemory, mock.GetTotalMemoryGB())
	}
}

func TestDefaultHostProfile(t *testing.T) {
	profile := GetHostProfile()

	// The CPU count falls back to the runtime count, so it can never be zero
	if profile.GetCPUCores() == 0 {
		t.Error("Expected at least one CPU core")
	}

	summary := profile.String()
	if !strings.Contains(summary, "CPU:") || !strings.Contains(summary, "Memory:") {
		t.Errorf("Expected summary to report CPU and memory, got '%s'", summary)
	}
}

func TestDefaultHostProfile_MemoryIsReadable(t *testing.T) {
	profile := GetHostProfile()

	// Sysinfo(2) works without privileges on Linux
	if profile.GetTotalMemoryGB() == 0 {
		t.Error("Expected total memory to be non-zero")
	}
}
