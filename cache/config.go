package cache

const defaultQueueSize = 64

// Config holds Store initialization parameters.
type Config struct {
	QueueSize int `json:"queue_size,omitempty"` // Pending operations buffered ahead of the owner goroutine.
}

// DefaultConfig returns the default store configuration.
func DefaultConfig() Config {
	return Config{QueueSize: defaultQueueSize}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.QueueSize > 0 {
		c.QueueSize = source.QueueSize
	}
}
