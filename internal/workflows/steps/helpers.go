package steps

import (
	"os"
	"strings"

	"github.com/automa-saga/logx"

	"github.com/meshview/provisioner/internal/schema"
)

// DumpSource resolves the schema dump for a database. A missing dump is not
// an error; the package may ship without one, in which case the database is
// created empty. A compressed sibling (<path>.gz) counts as present.
func DumpSource(path string) schema.Source {
	if strings.TrimSpace(path) == "" {
		return nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if _, gzErr := os.Stat(path + ".gz"); os.IsNotExist(gzErr) {
			logx.As().Warn().Str("dump", path).Msg("Schema dump not staged, database will be created empty")
			return nil
		}
	}

	src, err := schema.NewFileSource(path)
	if err != nil {
		logx.As().Warn().Err(err).Str("dump", path).Msg("Ignoring unusable schema dump")
		return nil
	}

	return src
}
