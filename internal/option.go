package internal

// Option is a functional option for configuring the application.
type Option func(*App)

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *App) {
		a.cfg = cfg
	}
}

// WithSessionNotice overrides how the session-lost notice is delivered
// (tests capture it instead of printing).
func WithSessionNotice(fn func(string)) Option {
	return func(a *App) {
		a.notify = fn
	}
}
