// Package logging provides a process-wide structured logger for this
// storage engine.
//
// The package wraps [log/slog] and exposes a single global logger instance
// that is initialized once and then retrieved via GetLogger. Every
// subsystem obtains a logger through this package rather than constructing
// its own slog.Logger value, so that log level and output destination are
// controlled from a single place.
//
// # Initialisation
//
// Call Init (or InitDefault for sensible defaults) once at program startup,
// before any goroutines that might call GetLogger are spawned:
//
//	if err := logging.Init(logging.Config{Level: logging.LevelDebug, OutputPath: "/var/log/storemy/engine.log"}); err != nil {
//	    log.Fatal(err)
//	}
//
// InitDefault writes INFO-level logs to stdout without a log file.
//
// # Retrieving the logger
//
//	logger := logging.GetLogger()
//	logger.Info("table created", "name", tableName)
//
// If GetLogger is called before Init, a default stdout logger is created
// lazily (via sync.Once) so that packages that log during init are safe.
//
// # Context helpers
//
// Several helpers return child loggers pre-populated with structured fields,
// reducing repetition in hot paths:
//
//	log := logging.WithTx(txID)         // adds tx_id field
//	log := logging.WithTable(name)      // adds table field
//	log := logging.WithPage(pageID)     // adds page_id field
//	log := logging.WithComponent(name)  // adds component field
package logging
