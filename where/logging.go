package where

import "github.com/fathiraz/sqlgen/logging"

// logger receives a Debug entry per compiled WHERE clause and a Warn entry
// when `{$or:[]}` / `{$not:[]}` collapses to "0 = 1" (spec §4.3/§8); an
// empty `$and` collapses to "" without a Warn entry. It defaults to a no-op
// so callers that never call SetLogger pay nothing for it.
var logger logging.Logger = logging.NewNoOpLogger()

// SetLogger installs l as the package-wide logger for the where compiler.
func SetLogger(l logging.Logger) {
	if l == nil {
		l = logging.NewNoOpLogger()
	}
	logger = l
}
