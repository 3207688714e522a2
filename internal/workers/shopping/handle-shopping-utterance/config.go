// internal/workers/shopping/handle-shopping-utterance/config.go
package handleshoppingutterance

import "time"

type Config struct {
	Timeout time.Duration
	// CreateMissing starts a session under the job's sessionId when none exists.
	CreateMissing bool
}

func LoadConfig() *Config {
	return &Config{
		Timeout:       90 * time.Second,
		CreateMissing: true,
	}
}
