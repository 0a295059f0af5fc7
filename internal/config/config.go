package config

import "time"

type Config struct {
	Service     *ServiceConfig
	Redis       *RedisConfig
	Postgres    *PostgresConfig
	Tracer      *TracerConfig
	Presence    *PresenceConfig
	Worker      *WorkerConfig
	Logger      *LoggerConfig
	SecretToken string
}

type ServiceConfig struct {
	Name string
	Env  string
	Addr string
}

type RedisConfig struct {
	URL          string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	MinIdleConns int
	PingTimeout  time.Duration
}

type PostgresConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

type TracerConfig struct {
	Address string
}

type PresenceConfig struct {
	// TypingIdle is the silence window after which a typing flag clears
	// itself without an explicit stop.
	TypingIdle time.Duration
	// HeartbeatInterval paces the Redis last-seen refresh per session.
	HeartbeatInterval time.Duration
	// LastSeenTTL bounds how long a last-seen key survives.
	LastSeenTTL time.Duration
}

type WorkerConfig struct {
	DeliveryGroup string
}

type LoggerConfig struct {
	Level  string
	Format string
}
