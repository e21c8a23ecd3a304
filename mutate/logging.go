package mutate

import "github.com/fathiraz/sqlgen/logging"

// logger receives a Debug entry per generated mutation statement. Defaults
// to a no-op so callers that never call SetLogger pay nothing for it.
var logger logging.Logger = logging.NewNoOpLogger()

// SetLogger installs l as the package-wide logger for the mutation builders.
func SetLogger(l logging.Logger) {
	if l == nil {
		l = logging.NewNoOpLogger()
	}
	logger = l
}
