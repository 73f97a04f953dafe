package optimize

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"
)

// OutputSuffix is inserted between the input stem and the extension.
const OutputSuffix = ".optimized"

// OutputPath returns the path the optimized animation is written to:
// <dir>/<stem>.optimized.gif next to input.
func OutputPath(input string) string {
	dir := filepath.Dir(input)
	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, stem+OutputSuffix+".gif")
}

// writeAtomic writes data to a temporary file beside path and renames it
// into place, so a failed write never leaves a truncated file at path.
func writeAtomic(path string, data []byte) error {
	err := renameio.WriteFile(path, data, 0o644, renameio.WithTempDir(filepath.Dir(path)))
	if err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return nil
}
