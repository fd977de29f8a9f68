package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spachava753/rawfetch/internal/models"
)

const (
	ExitOK     = 0
	ExitFailed = 1
	ExitConfig = 2
)

// ExitCode maps an error returned by Execute onto a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case models.IsConfigError(err):
		return ExitConfig
	default:
		return ExitFailed
	}
}

// ReportError prints err to w. Inside GitHub Actions it is emitted as an
// ::error:: workflow command so the run is annotated.
func ReportError(w io.Writer, err error) {
	if os.Getenv("GITHUB_ACTIONS") != "true" {
		fmt.Fprintf(w, "rawfetch: %s\n", err)
		return
	}
	fmt.Fprintf(w, "::error::%s\n", escapeData(err.Error()))
}

func escapeData(s string) string {
	return strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A").Replace(s)
}
