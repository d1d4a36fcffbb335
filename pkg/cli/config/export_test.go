package config

import "time"

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format string) *Logger {
	return &Logger{level: level, format: format}
}

// NewPolicyForTest creates a Policy config for testing purposes
func NewPolicyForTest(path, tablePrefix string) *Policy {
	return &Policy{path: path, tablePrefix: tablePrefix}
}

// NewRepositoryForTest creates a Repository config for testing purposes
func NewRepositoryForTest(backend string, cacheSize int) *Repository {
	return &Repository{backend: backend, cacheSize: cacheSize, cacheTTL: time.Minute}
}

// NewEmitterForTest creates an Emitter config for testing purposes
func NewEmitterForTest(apiKey string, excludeRoles []string) *Emitter {
	return &Emitter{apiKey: apiKey, excludeRoles: excludeRoles}
}

// NewReceiverForTest creates a Receiver config for testing purposes
func NewReceiverForTest(frequency string) *Receiver {
	return &Receiver{frequency: frequency}
}

// NewServerForTest creates a Server config for testing purposes
func NewServerForTest(mode string) *Server {
	return &Server{mode: mode}
}

// NewSlackForTest creates a Slack config for testing purposes
func NewSlackForTest(botToken, channelID string) *Slack {
	return &Slack{botToken: botToken, channelID: channelID}
}
