package conf

import (
	"encoding/json"
	"fmt"
	"time"
)

// Bootstrap is the root of configs/config.yaml.
type Bootstrap struct {
	Server *Server `json:"server"`
	Data   *Data   `json:"data"`
	Tmdb   *TMDB   `json:"tmdb"`
}

// Server holds transport settings.
type Server struct {
	Http      *HTTP  `json:"http"`
	SecretKey string `json:"secret_key"`
}

// HTTP configures the kratos HTTP server.
type HTTP struct {
	Network string    `json:"network"`
	Addr    string    `json:"addr"`
	Timeout *Duration `json:"timeout"`
}

// Data holds storage settings.
type Data struct {
	Database *Database `json:"database"`
	Redis    *Redis    `json:"redis"`
}

// Database selects the gorm dialector. Driver is "sqlite" or "postgres".
type Database struct {
	Driver string `json:"driver"`
	Source string `json:"source"`
}

// Redis configures the optional movie cache. An empty Addr disables it.
type Redis struct {
	Network      string    `json:"network"`
	Addr         string    `json:"addr"`
	ReadTimeout  *Duration `json:"read_timeout"`
	WriteTimeout *Duration `json:"write_timeout"`
}

// TMDB configures the metadata provider client.
type TMDB struct {
	Url              string    `json:"url"`
	ImageUrl         string    `json:"image_url"`
	PlaceholderImage string    `json:"placeholder_image"`
	Token            string    `json:"token"`
	Timeout          *Duration `json:"timeout"`
	MaxRetries       int32     `json:"max_retries"`
	RateLimit        float64   `json:"rate_limit"`
	RateBurst        int32     `json:"rate_burst"`
}

// Duration decodes "10s"-style strings (or integer nanoseconds) from config.
type Duration struct {
	time.Duration
}

// AsDuration returns the wrapped value; a nil receiver is zero.
func (d *Duration) AsDuration() time.Duration {
	if d == nil {
		return 0
	}
	return d.Duration
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		d.Duration = parsed
	default:
		return fmt.Errorf("invalid duration %s", string(b))
	}
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}
