// Package diag provides the diagnostic sink shared by the rip, build and
// inject pipelines: verbose-gated logging plus the warning/fatal reporting
// policy described in spec.md §7.
package diag

import (
	"fmt"
	"log"
)

// VerboseMode controls whether LogDebug output is emitted. It is set once
// at CLI startup and read by every pipeline package; callers never race on
// it because rip/build/inject runs are never concurrent (spec.md §5).
var VerboseMode bool = false

// SetVerboseMode enables or disables debug-level output.
func SetVerboseMode(verbose bool) {
	VerboseMode = verbose
}

// LogInfo logs an informational message.
func LogInfo(format string, args ...interface{}) {
	logf("[INFO] ", format, args...)
}

// LogWarn logs a non-fatal warning — spec.md §7's "Warning" error kind.
// Processing continues after a warning.
func LogWarn(format string, args ...interface{}) {
	logf("[WARN] ", format, args...)
}

// LogError logs an error that is about to abort the pipeline.
func LogError(format string, args ...interface{}) {
	logf("[ERROR] ", format, args...)
}

// LogDebug logs a message only when VerboseMode is enabled.
func LogDebug(format string, args ...interface{}) {
	if !VerboseMode {
		return
	}
	logf("[DEBUG] ", format, args...)
}

func logf(prefix, format string, args ...interface{}) {
	if len(args) > 0 {
		log.Printf(prefix+format, args...)
	} else {
		log.Print(prefix + format)
	}
}

// Wrap attaches context to an error without discarding it, matching the
// teacher's FormatError helper.
func Wrap(context string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, err)
}
