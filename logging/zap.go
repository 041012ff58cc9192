package logging

import "go.uber.org/zap"

// Zap adapts a zap.Logger to the go-kit log.Logger interface, so hosts built
// on zap can hand their logger to components in this module.
type Zap struct {
	*zap.Logger
}

// this method makes Zap implement log.Logger
func (z Zap) Log(keyvals ...interface{}) error {
	fields := make([]zap.Field, 0, len(keyvals)/2)
	for i := 0; i+1 < len(keyvals); i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			key = "invalid_key"
		}

		fields = append(fields, zap.Any(key, keyvals[i+1]))
	}

	// an odd number of keyvals indicates a bug in the caller; the dangling
	// value is dropped rather than panicking in a logging path

	z.Logger.Info("", fields...)
	return nil
}
