/*
Package log provides structured logging for collabkit using zerolog.

The log package wraps zerolog to provide JSON-structured logging with
component-specific child loggers, configurable levels, and helper functions
for the contextual fields collabkit's domains attach most often: object id,
view id, and row id.

# Usage

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})

	logger := log.WithComponent("rowblock")
	logger.Debug().Str("row_id", id).Msg("cache miss, enqueuing fetch")

Per §7 of the domain spec, observer callbacks never surface errors to
callers — they log them instead. Packages that translate substrate events
into domain events (folder, database, document) use WithComponent loggers
for exactly this purpose.
*/
package log
