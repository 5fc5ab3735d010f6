package logging

// NopLogger discards everything. It keeps constructors simple in tests
// and in tools that have no use for log output.
type NopLogger struct{}

var _ Logger = NopLogger{}

func (NopLogger) Init() {}

func (NopLogger) Debug(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any) {}
func (NopLogger) Debugf(template string, args ...any)                                     {}

func (NopLogger) Info(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any) {}
func (NopLogger) Infof(template string, args ...any)                                     {}

func (NopLogger) Warn(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any) {}
func (NopLogger) Warnf(template string, args ...any)                                     {}

func (NopLogger) Error(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any) {}
func (NopLogger) Errorf(template string, args ...any)                                     {}

func (NopLogger) Fatal(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any) {}
func (NopLogger) Fatalf(template string, args ...any)                                     {}
