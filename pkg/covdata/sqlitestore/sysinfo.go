package sqlitestore

import "context"

// SysInfo returns the linked SQLite library version, for diagnostic
// output. The Go equivalent of sqldata.py's CoverageData.sys_info()
// classmethod.
func (s *Store) SysInfo(ctx context.Context) (sqliteVersion string, err error) {
	row := s.conn().QueryRowContext(ctx, "SELECT sqlite_version()")
	if scanErr := row.Scan(&sqliteVersion); scanErr != nil {
		return "", wrapDataFileError(s.filename, scanErr)
	}
	return sqliteVersion, nil
}
