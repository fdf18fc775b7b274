package ports

import "context"

// Fields carries structured key/value context for a log entry.
type Fields = map[string]interface{}

// Logger is the logging port used by the scanner, its adapters and the CLI tools.
// Only the first Fields argument is used.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...Fields)
	Info(ctx context.Context, msg string, fields ...Fields)
	Warn(ctx context.Context, msg string, fields ...Fields)
	// Error logs err together with msg at Error level.
	Error(ctx context.Context, err error, msg string, fields ...Fields)
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debug(ctx context.Context, msg string, fields ...Fields)            {}
func (NopLogger) Info(ctx context.Context, msg string, fields ...Fields)             {}
func (NopLogger) Warn(ctx context.Context, msg string, fields ...Fields)             {}
func (NopLogger) Error(ctx context.Context, err error, msg string, fields ...Fields) {}
