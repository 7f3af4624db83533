package loom

// Option configures an Engine.
type Option func(*engineConfig)

type engineConfig struct {
	registry  *Registry
	current   string
	logger    MigrationLogger
	validator Validator
}

func applyOptions(opts []Option) engineConfig {
	cfg := engineConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.registry == nil {
		cfg.registry = DefaultRegistry()
	}
	if cfg.logger == nil {
		cfg.logger = noopMigrationLogger{}
	}
	if cfg.validator == nil {
		cfg.validator = sharedValidator()
	}
	return cfg
}

// WithRegistry replaces the built-in shapes and steps.
func WithRegistry(registry *Registry) Option {
	return func(cfg *engineConfig) {
		cfg.registry = registry
	}
}

// WithCurrentVersion sets the host release. It defaults to the registry's
// latest release and may not be older than it.
func WithCurrentVersion(release string) Option {
	return func(cfg *engineConfig) {
		cfg.current = release
	}
}

// WithLogger attaches a migration logger.
func WithLogger(logger MigrationLogger) Option {
	return func(cfg *engineConfig) {
		if logger == nil {
			cfg.logger = noopMigrationLogger{}
			return
		}
		cfg.logger = logger
	}
}

// WithValidator replaces the post-migration validator.
func WithValidator(validator Validator) Option {
	return func(cfg *engineConfig) {
		cfg.validator = validator
	}
}
