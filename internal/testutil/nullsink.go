package testutil

// NullSink accepts and discards every write. It never blocks, never fails
// and keeps no state, so it can stand in for any diagnostic output stream
// (slog handlers, zap cores, cobra output) without affecting assertions.
type NullSink struct{}

func (NullSink) Write(p []byte) (int, error) { return len(p), nil }

func (NullSink) WriteByte(byte) error { return nil }

func (NullSink) WriteString(s string) (int, error) { return len(s), nil }

// WriteAt discards p as if it had been written at off.
func (NullSink) WriteAt(p []byte, off int64) (int, error) { return len(p), nil }

// Sync satisfies zapcore.WriteSyncer.
func (NullSink) Sync() error { return nil }

// Close is a no-op; a NullSink stays usable after it.
func (NullSink) Close() error { return nil }
