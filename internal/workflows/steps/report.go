package steps

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/automa-saga/automa"
	"github.com/automa-saga/logx"
	"gopkg.in/yaml.v3"

	"github.com/meshview/provisioner/internal/core"
)

// PrintWorkflowReport prints the workflow execution report in YAML format
// and, when savePath is non-empty, writes the same document there.
var PrintWorkflowReport = func(report *automa.Report, savePath string) {
	b, err := yaml.Marshal(report)
	if err != nil {
		fmt.Printf("Failed to marshal report: %v\n", err)
		return
	}
	fmt.Printf("Workflow Execution Report:%s\n", b)

	if savePath == "" {
		return
	}

	if err := os.MkdirAll(filepath.Dir(savePath), core.DefaultFilePerm); err != nil {
		logx.As().Warn().Err(err).Str("path", savePath).Msg("Failed to create report directory")
		return
	}

	if err := os.WriteFile(savePath, b, 0644); err != nil {
		logx.As().Warn().Err(err).Str("path", savePath).Msg("Failed to save workflow report")
		return
	}

	logx.As().Info().Str("path", savePath).Msg("Workflow report saved")
}
