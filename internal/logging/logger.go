// Package logging holds the structured logger shared by repositories,
// services and the CLI. SlogLogger is the log/slog backed implementation.
package logging

import "context"

// Logger takes a message followed by alternating keys and values:
//
//	log.Info(ctx, "asset created", "asset_id", id, "partition_id", pid)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	// Warn reports data anomalies that are tolerated rather than fixed,
	// such as two assets sharing one identifier.
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With binds key/value pairs to every record of the returned logger.
	With(args ...any) Logger
}
