// Package linearize wraps the external linearisation subprocess: a
// separate linearising tool invoked on the final output file, outside
// this module's core. A linearisation failure is reported but never
// invalidates the already-written, non-linearised output.
package linearize

import (
	"os/exec"

	"github.com/mrcpdf/mrcpdf/pkg/errtyp"
)

// Run invokes bin on path, asking it to linearise the PDF in place.
// An empty bin is treated as "no lineariser configured" and is a no-op.
func Run(bin, path string) error {
	if bin == "" {
		return nil
	}
	cmd := exec.Command(bin, path)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return errtyp.Wrapf(errtyp.Linearize, err, "linearising %s: %s", path, string(out))
	}
	return nil
}
