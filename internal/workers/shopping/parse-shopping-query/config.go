// internal/workers/shopping/parse-shopping-query/config.go
package parseshoppingquery

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
