package mqtt

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/kilianp07/flexbid/infra/logger"
)

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Broker        string      `json:"broker"`
	ClientID      string      `json:"client_id"`
	Username      string      `json:"username"`
	Password      string      `json:"password"`
	ScheduleTopic string      `json:"schedule_topic"`
	QoS           byte        `json:"qos"`
	Retain        *bool       `json:"retain"`
	UseTLS        bool        `json:"use_tls"`
	ClientCert    string      `json:"client_cert"`
	ClientKey     string      `json:"client_key"`
	CABundle      string      `json:"ca_bundle"`
	LWTTopic      string      `json:"lwt_topic"`
	LWTPayload    string      `json:"lwt_payload"`
	MaxRetries    int         `json:"max_retries"`
	BackoffMS     int         `json:"backoff_ms"`
	TLSConfig     *tls.Config `json:"-"`
}

// DefaultScheduleTopic is used when Config.ScheduleTopic is empty.
const DefaultScheduleTopic = "flexbid/schedule"

// Enabled reports whether a broker is configured.
func (c Config) Enabled() bool { return c.Broker != "" }

// Validate checks the settings used when the publisher is enabled.
func (c Config) Validate() error {
	if !c.Enabled() {
		return nil
	}
	if c.QoS > 2 {
		return fmt.Errorf("mqtt qos must be 0, 1 or 2, got %d", c.QoS)
	}
	if c.MaxRetries < 0 || c.BackoffMS < 0 {
		return fmt.Errorf("mqtt max_retries and backoff_ms must be >= 0")
	}
	if c.UseTLS && c.TLSConfig == nil && (c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "") {
		return fmt.Errorf("mqtt tls requires client_cert, client_key and ca_bundle")
	}
	return nil
}

func (c Config) topic() string {
	if c.ScheduleTopic == "" {
		return DefaultScheduleTopic
	}
	return c.ScheduleTopic
}

func (c Config) retain() bool {
	return c.Retain == nil || *c.Retain
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

func connect(cfg Config, log logger.Logger) (pahoClient, error) {
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	opts.OnConnect = func(paho.Client) {
		log.Infof("MQTT connected to %s", cfg.Broker)
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", cfg.Broker, token.Error())
	}
	return c, nil
}

// NewClientOptions builds mqtt client options from Config. A random client id
// is generated when none is configured.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	id := cfg.ClientID
	if id == "" {
		id = "flexbid-" + uuid.NewString()
	}
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(id)
	opts.AutoReconnect = true
	opts.SetConnectTimeout(10 * time.Second)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	if cfg.LWTTopic != "" {
		opts.SetWill(cfg.LWTTopic, cfg.LWTPayload, cfg.QoS, true)
	}
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caBytes) {
		return nil, fmt.Errorf("ca bundle %s holds no PEM certificate", c.CABundle)
	}
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}

// publish sends payload, retrying with exponential backoff until it succeeds,
// retries are exhausted or ctx is done.
func publish(ctx context.Context, c pahoClient, topic string, qos byte, retain bool, payload []byte, retries int, backoff time.Duration, log logger.Logger) error {
	var err error
	for attempt := 0; attempt <= retries; attempt++ {
		token := c.Publish(topic, qos, retain, payload)
		select {
		case <-token.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
		if err = token.Error(); err == nil {
			return nil
		}
		log.Warnf("publish attempt %d to %s failed: %v", attempt+1, topic, err)
		if attempt == retries {
			break
		}
		select {
		case <-time.After(backoff * time.Duration(1<<attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("publish to %s: %w", topic, err)
}
