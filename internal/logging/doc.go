// Package logging wraps zap for metadex.
//
// Loggers take a context on every call and prepend correlation fields found
// on it: the OpenTelemetry trace and span ids, the reload id and the request
// id. Output goes to stdout (JSON or console) and optionally to the
// OpenTelemetry log pipeline. Credential-looking keys and values are
// redacted by the encoder, and levels below Error are sampled.
//
//	logger, err := logging.NewLogger(logging.NewDefaultConfig(), nil)
//	ctx = logging.WithReloadID(ctx, id)
//	logger.Info(ctx, "reload finished", zap.Int("records", n))
//
// Tests use NewTestLogger, which records entries for assertions.
package logging
