// SPDX-License-Identifier: Apache-2.0

package tomlx

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleSettings = `[server]
listen = "127.0.0.1:8080"

[admin]
email = "ops@example.org"
name = "Operations"

[database]
host = "localhost"
port = 5432
`

func writeSettings(t *testing.T, content string) string {
	t.Helper()

	testFile := filepath.Join(t.TempDir(), "settings.toml")
	if err := os.WriteFile(testFile, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}
	return testFile
}

func Test_Load(t *testing.T) {
	testFile := writeSettings(t, sampleSettings)

	config, err := Load(testFile)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if _, ok := config["admin"]; !ok {
		t.Error("Expected admin table to be present")
	}
	if _, ok := config["server"]; !ok {
		t.Error("Expected server table to be present")
	}
}

func Test_Load_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err == nil {
		t.Fatal("Expected an error for a missing file")
	}
	if !os.IsNotExist(err) {
		t.Errorf("Expected a not-exist error, got: %v", err)
	}
}

func Test_Load_MalformedFile(t *testing.T) {
	testFile := writeSettings(t, "[admin\nemail = ")

	_, err := Load(testFile)
	if err == nil {
		t.Fatal("Expected an error for malformed TOML")
	}
}

func Test_Lookup(t *testing.T) {
	testFile := writeSettings(t, sampleSettings)

	config, err := Load(testFile)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	t.Run("NestedKey", func(t *testing.T) {
		value, ok := Lookup(config, "admin.email")
		if !ok {
			t.Fatal("Expected admin.email to resolve")
		}
		if value != "ops@example.org" {
			t.Errorf("Expected 'ops@example.org', got '%v'", value)
		}
	})

	t.Run("TopLevelTable", func(t *testing.T) {
		value, ok := Lookup(config, "database")
		if !ok {
			t.Fatal("Expected database table to resolve")
		}
		if _, isTable := value.(map[string]interface{}); !isTable {
			t.Errorf("Expected a table, got %T", value)
		}
	})

	t.Run("MissingKey", func(t *testing.T) {
		if _, ok := Lookup(config, "admin.phone"); ok {
			t.Error("Expected admin.phone to be absent")
		}
	})

	t.Run("NonTableIntermediate", func(t *testing.T) {
		if _, ok := Lookup(config, "admin.email.domain"); ok {
			t.Error("Expected lookup through a string to fail")
		}
	})
}

func Test_LookupString(t *testing.T) {
	config := map[string]interface{}{
		"admin": map[string]interface{}{
			"email": "ops@example.org",
			"port":  int64(25),
			"blank": "",
		},
	}

	if s, ok := LookupString(config, "admin.email"); !ok || s != "ops@example.org" {
		t.Errorf("Expected 'ops@example.org', got '%s' (ok=%v)", s, ok)
	}

	// Non-string values and empty strings both miss
	if _, ok := LookupString(config, "admin.port"); ok {
		t.Error("Expected a non-string value to miss")
	}
	if _, ok := LookupString(config, "admin.blank"); ok {
		t.Error("Expected an empty string to miss")
	}
}
