package log

// NoopLogger discards every message. The zero value is ready to use.
type NoopLogger struct{}

// NewNoopLogger returns a logger that writes nothing.
func NewNoopLogger() *NoopLogger {
	return &NoopLogger{}
}

func (NoopLogger) Debug(string, ...Field) {}
func (NoopLogger) Info(string, ...Field)  {}
func (NoopLogger) Warn(string, ...Field)  {}
func (NoopLogger) Error(string, ...Field) {}

// With returns the logger itself; there is nothing to attach fields to.
func (l NoopLogger) With(...Field) Logger { return l }
