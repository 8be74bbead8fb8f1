// SPDX-License-Identifier: Apache-2.0

package version

import (
	_ "embed"
	"encoding/json"
	"runtime"
	"strings"

	"github.com/joomcode/errorx"
	"gopkg.in/yaml.v3"
)

//go:embed VERSION
var number string

//go:embed COMMIT
var commit string

// Number returns the released version of this tool.
func Number() string {
	return strings.TrimSpace(number)
}

// Commit returns the source revision this tool was built from.
// The CI pipeline writes the revision into the COMMIT file before building.
func Commit() string {
	return strings.TrimSpace(commit)
}

// Current returns Number as a comparable Version.
func Current() Version {
	return New(Number())
}

const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// Info describes the build of the running binary.
type Info struct {
	Number    string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	GoVersion string `json:"go" yaml:"go"`
}

func Get() Info {
	return Info{
		Number:    Number(),
		Commit:    Commit(),
		GoVersion: runtime.Version(),
	}
}

func (v Info) Format(format string) (string, error) {
	var output []byte
	var err error
	switch strings.ToLower(format) {
	case FormatJSON:
		output, err = json.Marshal(v)
		if err != nil {
			return "", errorx.IllegalFormat.Wrap(err, "Error marshaling version info to JSON")
		}
	case FormatYAML:
		output, err = yaml.Marshal(v)
		if err != nil {
			return "", errorx.IllegalFormat.Wrap(err, "Error marshaling version info to YAML")
		}
	default:
		return "", errorx.IllegalFormat.New("unsupported format: %s", format)
	}

	return string(output), nil
}
