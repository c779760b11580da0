package datarecording

import (
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// RecorderConfig selects and configures a recording backend.
type RecorderConfig struct {
	// Type is "sqlite" or "clickhouse". Empty means sqlite.
	Type string `yaml:"type"`

	// Path is the SQLite file name without the extension.
	Path string `yaml:"path"`

	// ConnStr is a ClickHouse DSN. It takes precedence over the individual
	// connection fields.
	ConnStr string `yaml:"conn_str"`

	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	BatchSize int `yaml:"batch_size"`
}

// NewWithConfig creates the recorder that the configuration selects.
func NewWithConfig(c RecorderConfig) (DataRecorder, error) {
	switch c.Type {
	case "", "sqlite":
		return New(c.Path), nil
	case "clickhouse":
		options, err := c.clickHouseOptions()
		if err != nil {
			return nil, err
		}

		return newClickHouseRecorder(options, c.BatchSize)
	default:
		return nil, fmt.Errorf("unknown recorder type %q", c.Type)
	}
}

func (c RecorderConfig) clickHouseOptions() (*clickhouse.Options, error) {
	if c.ConnStr != "" {
		return clickhouse.ParseDSN(c.ConnStr)
	}

	host := c.Host
	if host == "" {
		host = "localhost"
	}

	port := c.Port
	if port == 0 {
		port = 9000
	}

	return &clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", host, port)},
		Auth: clickhouse.Auth{
			Database: c.Database,
			Username: c.Username,
			Password: c.Password,
		},
	}, nil
}
