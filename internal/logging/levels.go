package logging

import (
	"strings"

	"go.uber.org/zap/zapcore"
)

// TraceLevel sits below Debug. Reloads log every parsed file at this level.
const TraceLevel = zapcore.Level(-2)

// LevelFromString parses a level name without regard to case. Besides
// zap's names it accepts "trace" and "warning"; empty means info.
func LevelFromString(level string) (zapcore.Level, error) {
	switch name := strings.ToLower(strings.TrimSpace(level)); name {
	case "trace":
		return TraceLevel, nil
	case "warning":
		return zapcore.WarnLevel, nil
	case "":
		return zapcore.InfoLevel, nil
	default:
		return zapcore.ParseLevel(name)
	}
}
