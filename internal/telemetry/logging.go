// Package telemetry provides mure's only logging side effect: the MURE_LOG_ERRORS
// knob of spec.md §6. When unset or falsy, nothing is written anywhere; when truthy,
// transport failures are logged to stderr as structured log/slog records. The switch is
// an environment variable rather than a flag because mure is a library.
package telemetry

import (
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
)

// LogErrorsEnv is the environment variable spec.md §6 names.
const LogErrorsEnv = "MURE_LOG_ERRORS"

// Logger returns the package-wide logger: a JSON handler on stderr when MURE_LOG_ERRORS
// is truthy, or a discarding handler otherwise. Each call re-reads the environment, so
// tests can toggle it with t.Setenv.
func Logger() *slog.Logger {
	if !enabled() {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, nil))
}

// enabled reports whether MURE_LOG_ERRORS is set to a truthy value, using the same
// lenient boolean parsing strconv.ParseBool provides (1/t/T/TRUE/true/True, and their
// false-y counterparts); anything else, including unset, is falsy.
func enabled() bool {
	v, ok := os.LookupEnv(LogErrorsEnv)
	if !ok {
		return false
	}
	truthy, err := strconv.ParseBool(v)
	return err == nil && truthy
}

// RunID returns a short correlation id for one Drive call's log lines, so that
// concurrent Drive calls in the same process don't interleave illegibly.
func RunID() string {
	return uuid.NewString()
}

// LogTransportFailure writes one structured record (plus, when stderr is a terminal, a
// short human-readable line) for a single worker's transport failure. No-op unless
// MURE_LOG_ERRORS is truthy, whatever logger is supplied; callers always have one in
// hand via Logger(), so this just centralizes the terminal-detection branch.
func LogTransportFailure(logger *slog.Logger, runID string, index int, url, reason string) {
	if !enabled() {
		return
	}
	logger.Error("transport failure", "run_id", runID, "index", index, "url", url, "reason", reason)
	if isatty.IsTerminal(os.Stderr.Fd()) {
		os.Stderr.WriteString("mure: request " + strconv.Itoa(index) + " failed: " + reason + "\n")
	}
}
