package config

// Config 配置主体
type Config struct {
	Server            ServerConfig              `mapstructure:"server"`
	DB                DBConfig                  `mapstructure:"database"`
	Redis             RedisConfig               `mapstructure:"redis"`
	Mongo             MongoConfig               `mapstructure:"mongo"`
	Logstash          LogstashConfig            `mapstructure:"logstash"`
	Kafka             KafkaConfig               `mapstructure:"kafka"`
	KafkaSubsConsumer KafkaSubscriptionConsumer `mapstructure:"kafka_subscription_consumer"`
	ReadReceipt       ReadReceiptConfig         `mapstructure:"read_receipt"`
}

// ServerConfig Server配置
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// DBConfig 数据库配置
type DBConfig struct {
	DSN         string `mapstructure:"dsn"`
	MaxIdle     int    `mapstructure:"max_idle"`
	MaxOpen     int    `mapstructure:"max_open"`
	MaxLifetime int    `mapstructure:"max_lifetime"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// MongoConfig Mongo配置
type MongoConfig struct {
	URL      string `mapstructure:"url"`
	Database string `mapstructure:"database"`
}

// LogstashConfig 远程日志配置
type LogstashConfig struct {
	Address string `mapstructure:"address"`
	Index   string `mapstructure:"index"`
	Token   string `mapstructure:"token"`
}

type KafkaConfig struct {
	Brokers  []string       `mapstructure:"brokers"`
	Sasl     SaslConfig     `mapstructure:"sasl"`
	Consumer ConsumerConfig `mapstructure:"consumer"`
}

type SaslConfig struct {
	Enable   bool   `mapstructure:"enable"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type ConsumerConfig struct {
	SessionTimeout    int `mapstructure:"session_timeout"`
	HeartbeatInterval int `mapstructure:"heartbeat_interval"`
	RebalanceTimeout  int `mapstructure:"rebalance_timeout"`
	MaxProcessingTime int `mapstructure:"max_processing_time"`
}

// KafkaSubscriptionConsumer 订阅表 CDC 消费者配置
type KafkaSubscriptionConsumer struct {
	Topic   string `mapstructure:"topic"`
	GroupID string `mapstructure:"group_id"`
}

// ReadReceiptConfig 已读回执管线配置
type ReadReceiptConfig struct {
	// DebounceMillis 同一房间两次已读事件之间的聚合窗口，默认 2000
	DebounceMillis int `mapstructure:"debounce_millis"`
	// SweepIdleMinutes 空闲去抖条目的清理阈值，默认 10
	SweepIdleMinutes int `mapstructure:"sweep_idle_minutes"`
}
