package log

import "byteshift/pkg/appdir"

// DefaultDBFile is the run log database name inside the application directory.
const DefaultDBFile = "byteshift.db"

// DefaultDBPath returns the default run log database location.
func DefaultDBPath() string {
	return appdir.Path(DefaultDBFile)
}
