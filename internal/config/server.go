package config

import "github.com/caarlos0/env/v11"

type ServerConfig struct {
	TCPAddr  string `env:"TCP_ADDR" envDefault:":10000"`
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	MoveTimeoutSeconds    int `env:"MOVE_TIMEOUT_SECONDS" envDefault:"30"`
	KeepaliveSeconds      int `env:"KEEPALIVE_TIMEOUT_SECONDS" envDefault:"60"`
	ReconnectGraceSeconds int `env:"RECONNECT_GRACE_SECONDS" envDefault:"120"`

	MaxSessions       int `env:"MAX_SESSIONS" envDefault:"128"`
	MaxRooms          int `env:"MAX_ROOMS" envDefault:"64"`
	MaxProtocolErrors int `env:"MAX_PROTOCOL_ERRORS" envDefault:"10"`
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	err := env.Parse(&cfg)
	return cfg, err
}
