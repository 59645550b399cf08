// Package database handles the optional MySQL connection used to archive
// run reports.
//
// # Connect
//
// Connect opens a GORM connection with bounded connect, read and write
// timeouts and pings it once. The archive is optional: callers log a
// connection failure and continue without it.
//
// # Schema Inspection
//
// When automatic migration is disabled the archive table is managed by the
// operator. GetTableColumns and MissingColumns verify that the table carries
// every column the agent writes before the first report is stored.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Warn("Report archive disabled", zap.Error(err))
//	}
//
//	missing, err := database.MissingColumns(db, "agent_reports", []string{"run_id", "body"})
package database
