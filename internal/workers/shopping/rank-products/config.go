// internal/workers/shopping/rank-products/config.go
package rankproducts

import "time"

type Config struct {
	MaxItems int
	Timeout  time.Duration
}

func LoadConfig() *Config {
	return &Config{
		MaxItems: 10,
		Timeout:  30 * time.Second,
	}
}
