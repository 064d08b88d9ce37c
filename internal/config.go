package internal

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/shge/meet-notify/pkg/meet"
	"github.com/shge/meet-notify/pkg/slack"
	"github.com/shge/meet-notify/pkg/worker"
)

// Config is the full application configuration. All credential, space, and
// delivery settings are required at startup; a missing value is a fatal
// configuration error.
type Config struct {
	// Google holds Cloud project and credential file locations.
	Google struct {
		ProjectID          string `yaml:"project_id"`
		ClientSecretFile   string `yaml:"client_secret_file"`
		ServiceAccountFile string `yaml:"service_account_file"`
		TokenFile          string `yaml:"token_file"`
	} `yaml:"google"`
	// Meet scopes the relay to one space and one meeting URL.
	Meet struct {
		// SpaceName is the target space (spaces/{space}); events whose
		// subject does not end with it are ignored.
		SpaceName  string `yaml:"space_name"`
		MeetingURL string `yaml:"meeting_url"`
		// Topic is the Pub/Sub topic resource subscriptions deliver to
		// (projects/{project}/topics/{topic}).
		Topic string `yaml:"topic"`
		// EventTypes are registered when creating a subscription. Only the
		// participant joined/left types are enabled by default; conference,
		// recording and transcript types are supported but opt-in.
		EventTypes []string `yaml:"event_types"`
	} `yaml:"meet"`
	// Slack configures the chat webhook messages are forwarded to.
	Slack struct {
		WebhookURL string `yaml:"webhook_url"`
		Username   string `yaml:"username"`
	} `yaml:"slack"`
	// Server configures the push-delivery and metrics HTTP endpoints.
	Server struct {
		Port        int    `yaml:"port"`
		PushPath    string `yaml:"push_path"`
		MetricsPath string `yaml:"metrics_path"`
		// RateLimitRPS limits push deliveries per client IP. Zero disables
		// limiting.
		RateLimitRPS   int64 `yaml:"rate_limit_rps"`
		RateLimitBurst int64 `yaml:"rate_limit_burst"`
	} `yaml:"server"`
	// Subscriber selects and configures the pull-delivery transport.
	Subscriber worker.SubscriberConfig `yaml:"subscriber"`

	// HTTPTimeoutMS bounds every outbound detail-fetch and webhook call.
	// A timeout is an ordinary handler failure, not fatal.
	HTTPTimeoutMS int64 `yaml:"http_timeout_ms"`
	// Concurrency is the number of messages processed in parallel.
	Concurrency int `yaml:"concurrency"`
}

// HTTPTimeout returns the outbound call timeout as a duration.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutMS) * time.Millisecond
}

// LoadConfig loads the configuration from a YAML file. Environment variables
// are expanded, defaults applied, and required fields validated.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return cfg, err
	}

	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks that every required setting is present.
func (c *Config) Validate() error {
	var missing []string
	if c.Google.ProjectID == "" {
		missing = append(missing, "google.project_id")
	}
	if c.Google.ClientSecretFile == "" {
		missing = append(missing, "google.client_secret_file")
	}
	if c.Google.ServiceAccountFile == "" {
		missing = append(missing, "google.service_account_file")
	}
	if c.Meet.SpaceName == "" {
		missing = append(missing, "meet.space_name")
	}
	if c.Meet.MeetingURL == "" {
		missing = append(missing, "meet.meeting_url")
	}
	if c.Meet.Topic == "" {
		missing = append(missing, "meet.topic")
	}
	if c.Slack.WebhookURL == "" {
		missing = append(missing, "slack.webhook_url")
	}
	if strings.EqualFold(c.Subscriber.Driver, "googlecloud") && c.Subscriber.GoogleCloud.Subscription == "" {
		missing = append(missing, "subscriber.googlecloud.subscription")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Google.TokenFile == "" {
		cfg.Google.TokenFile = "token.json"
	}
	if len(cfg.Meet.EventTypes) == 0 {
		cfg.Meet.EventTypes = []string{
			meet.EventParticipantJoined,
			meet.EventParticipantLeft,
		}
	}
	if cfg.Slack.Username == "" {
		cfg.Slack.Username = slack.DefaultUsername
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.PushPath == "" {
		cfg.Server.PushPath = "/push"
	}
	if cfg.Server.MetricsPath == "" {
		cfg.Server.MetricsPath = "/metrics"
	}
	if cfg.Subscriber.Driver == "" {
		cfg.Subscriber.Driver = "googlecloud"
	}
	if cfg.Subscriber.GoogleCloud.ProjectID == "" {
		cfg.Subscriber.GoogleCloud.ProjectID = cfg.Google.ProjectID
	}
	if cfg.Subscriber.GoogleCloud.ServiceAccountFile == "" {
		cfg.Subscriber.GoogleCloud.ServiceAccountFile = cfg.Google.ServiceAccountFile
	}
	if cfg.Subscriber.GoChannel.OutputChannelBuffer == 0 {
		cfg.Subscriber.GoChannel.OutputChannelBuffer = 64
	}
	if cfg.HTTPTimeoutMS == 0 {
		cfg.HTTPTimeoutMS = 15000
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = 4
	}
}
