package worker

// SubscriberConfig holds the configuration for the pull-delivery transport.
// The googlecloud driver is the production transport; gochannel exists for
// in-process wiring and tests, and the broker drivers cover deployments
// where the notifications are re-relayed through an existing bus.
type SubscriberConfig struct {
	Driver string `yaml:"driver"`

	GoChannel   GoChannelConfig   `yaml:"gochannel"`
	GoogleCloud GoogleCloudConfig `yaml:"googlecloud"`
	AMQP        AMQPConfig        `yaml:"amqp"`
	NATS        NATSConfig        `yaml:"nats"`
	Kafka       KafkaConfig       `yaml:"kafka"`
	SQL         SQLConfig         `yaml:"sql"`
}

// GoChannelConfig holds configuration for the in-process pub/sub.
type GoChannelConfig struct {
	OutputChannelBuffer            int64 `yaml:"output_buffer"`
	Persistent                     bool  `yaml:"persistent"`
	BlockPublishUntilSubscriberAck bool  `yaml:"block_publish_until_subscriber_ack"`
}

// GoogleCloudConfig holds configuration for the Google Cloud Pub/Sub
// subscriber. The subscription must already exist; it is never created on
// the fly.
type GoogleCloudConfig struct {
	ProjectID          string `yaml:"project_id"`
	Subscription       string `yaml:"subscription"`
	ServiceAccountFile string `yaml:"service_account_file"`
}

// AMQPConfig holds configuration for the AMQP subscriber.
type AMQPConfig struct {
	URL  string `yaml:"url"`
	Mode string `yaml:"mode"`
}

// NATSConfig holds configuration for the NATS Streaming subscriber.
type NATSConfig struct {
	ClusterID string `yaml:"cluster_id"`
	ClientID  string `yaml:"client_id"`
	URL       string `yaml:"url"`
	Durable   string `yaml:"durable"`
}

// KafkaConfig holds configuration for the Kafka subscriber.
type KafkaConfig struct {
	Brokers       []string `yaml:"brokers"`
	ConsumerGroup string   `yaml:"consumer_group"`
}

// SQLConfig holds configuration for the SQL subscriber.
type SQLConfig struct {
	Driver               string `yaml:"driver"`
	DSN                  string `yaml:"dsn"`
	Dialect              string `yaml:"dialect"`
	ConsumerGroup        string `yaml:"consumer_group"`
	InitializeSchema     bool   `yaml:"initialize_schema"`
	AutoInitializeSchema bool   `yaml:"auto_initialize_schema"`
}
