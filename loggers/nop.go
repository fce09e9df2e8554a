package loggers

// Nop is a no-op backend. It satisfies every capability interface and drops
// all records, for wiring tracking calls into code paths that should not
// persist anything (smoke runs, benchmarks).
type Nop struct{}

// Compile-time capability assertions.
var (
	_ Logger       = (*Nop)(nil)
	_ VideoLogger  = (*Nop)(nil)
	_ ConfigLogger = (*Nop)(nil)
)

// NewNop creates a no-op backend.
func NewNop() *Nop {
	return &Nop{}
}

// LogScalar drops the record.
func (n *Nop) LogScalar(_ string, _ float64, _ ...Option) error { return nil }

// LogVideo drops the video.
func (n *Nop) LogVideo(_ string, _ *Video, _ int, _ ...Option) error { return nil }

// LogConfig drops the configuration.
func (n *Nop) LogConfig(_ map[string]string) error { return nil }

// Name identifies the no-op backend.
func (n *Nop) Name() string { return "nop" }

// Close is a no-op and always returns nil.
func (n *Nop) Close() error { return nil }
