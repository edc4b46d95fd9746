package logger

// NoOpLogger discards everything. Tests use it through NewNop.
type NoOpLogger struct{}

// NewNop returns a logger that writes nothing.
func NewNop() Logger {
	return NoOpLogger{}
}

func (NoOpLogger) Debug(string, ...Field) {}
func (NoOpLogger) Info(string, ...Field)  {}
func (NoOpLogger) Warn(string, ...Field)  {}
func (NoOpLogger) Error(string, ...Field) {}

// Fatal does not exit.
func (NoOpLogger) Fatal(string, ...Field) {}

func (l NoOpLogger) With(...Field) Logger { return l }
func (NoOpLogger) Sync() error            { return nil }
