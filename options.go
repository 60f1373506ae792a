package scopeshare

import "go.uber.org/zap"

type options struct {
	logger *zap.Logger
	locker RWLocker
}

type Option func(*options)

// WithLogger sets the logger used to report borrow violations and poisoning.
// The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithLocker replaces the lock behind a SharedCell. Cell ignores it.
func WithLocker(l RWLocker) Option {
	return func(o *options) {
		o.locker = l
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return o
}
