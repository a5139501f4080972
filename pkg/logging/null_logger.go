package logging

// NullLogger discards everything. Components default to it when
// no logger is configured.
type NullLogger struct{}

func (NullLogger) Info(_ string, _ ...Field)       {}
func (NullLogger) Warn(_ string, _ ...Field)       {}
func (NullLogger) Error(_ string, _ ...Field)      {}
func (NullLogger) Debug(_ string, _ ...Field)      {}
func (NullLogger) WithFields(_ ...Field) Logger    { return NullLogger{} }
func (NullLogger) LogAPIRequest(_ APIRequestLog)   {}
func (NullLogger) LogAPIResponse(_ APIResponseLog) {}
func (NullLogger) Close() error                    { return nil }
