package report

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// MQTTTLS configures an optional mutually authenticated TLS connection
// to the broker.
type MQTTTLS struct {
	Enabled    bool
	CACert     string
	ClientCert string
	ClientKey  string
}

// MQTTOptions configures an MQTTPublisher, mirroring mqtt_publisher.go's
// client-options construction.
type MQTTOptions struct {
	Broker      string
	Username    string
	Password    string
	TopicPrefix string
	QoS         byte
	Retain      bool
	TLS         MQTTTLS
}

// MQTTPublisher publishes decode results as JSON to an MQTT broker.
// Grounded on mqtt_publisher.go's MQTTPublisher, with the client ID
// generated by google/uuid instead of crypto/rand+hex.
type MQTTPublisher struct {
	client      mqtt.Client
	topicPrefix string
	qos         byte
	retain      bool
}

// spotPayload is the JSON shape published for each decode.
type spotPayload struct {
	ID               string  `json:"id"`
	Time             string  `json:"time"`
	ReceiverCallsign string  `json:"receiver_callsign"`
	ReceiverLocator  string  `json:"receiver_locator"`
	Band             string  `json:"band"`
	Callsign         string  `json:"callsign"`
	Grid             string  `json:"grid,omitempty"`
	PowerDBm         int     `json:"power_dbm"`
	SNRdB            float64 `json:"snr_db"`
	FreqOffsetHz     float64 `json:"freq_offset_hz"`
	DriftHzPerSec    float64 `json:"drift_hz_per_sec"`
	MessageType      int     `json:"message_type"`
}

// NewMQTTPublisher connects to opts.Broker and returns a ready
// publisher. Matches mqtt_publisher.go's NewMQTTPublisher option
// sequence: auto-reconnect, bounded connect retry, keepalive, and an
// optional client TLS config.
func NewMQTTPublisher(opts MQTTOptions) (*MQTTPublisher, error) {
	clientID := "wsprgo-" + uuid.NewString()

	copts := mqtt.NewClientOptions()
	copts.AddBroker(opts.Broker)
	copts.SetClientID(clientID)
	if opts.Username != "" {
		copts.SetUsername(opts.Username)
		copts.SetPassword(opts.Password)
	}
	copts.SetAutoReconnect(true)
	copts.SetConnectRetry(true)
	copts.SetConnectRetryInterval(5 * time.Second)
	copts.SetKeepAlive(30 * time.Second)
	copts.SetPingTimeout(10 * time.Second)

	if opts.TLS.Enabled {
		tlsConfig, err := loadTLSConfig(opts.TLS)
		if err != nil {
			return nil, fmt.Errorf("mqtt tls: %w", err)
		}
		copts.SetTLSConfig(tlsConfig)
	}

	copts.SetOnConnectHandler(func(mqtt.Client) {
		log.Printf("mqtt: connected to %s", opts.Broker)
	})
	copts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Printf("mqtt: connection lost: %v", err)
	})
	copts.SetReconnectingHandler(func(mqtt.Client, *mqtt.ClientOptions) {
		log.Printf("mqtt: reconnecting to %s", opts.Broker)
	})

	client := mqtt.NewClient(copts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("mqtt: connect timed out")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt: connect: %w", err)
	}

	return &MQTTPublisher{
		client:      client,
		topicPrefix: opts.TopicPrefix,
		qos:         opts.QoS,
		retain:      opts.Retain,
	}, nil
}

func loadTLSConfig(t MQTTTLS) (*tls.Config, error) {
	cfg := &tls.Config{}

	if t.CACert != "" {
		pem, err := os.ReadFile(t.CACert)
		if err != nil {
			return nil, fmt.Errorf("reading ca cert: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("parsing ca cert %s", t.CACert)
		}
		cfg.RootCAs = pool
	}

	if t.ClientCert != "" && t.ClientKey != "" {
		cert, err := tls.LoadX509KeyPair(t.ClientCert, t.ClientKey)
		if err != nil {
			return nil, fmt.Errorf("loading client cert/key: %w", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}

	return cfg, nil
}

// PublishSpot publishes one decode as JSON under
// <topicPrefix>/spots/<band>, matching PublishDigitalDecode's
// fire-and-forget shape: publish is asynchronous, with a background
// goroutine logging any delivery error.
func (p *MQTTPublisher) PublishSpot(ctx context.Context, band string, s Spot) error {
	if p == nil || !p.client.IsConnected() {
		return fmt.Errorf("mqtt: not connected")
	}

	d := s.Decode
	payload := spotPayload{
		ID:               s.ID,
		Time:             s.Time.UTC().Format(time.RFC3339),
		ReceiverCallsign: s.ReceiverCallsign,
		ReceiverLocator:  s.ReceiverLocator,
		Band:             band,
		Callsign:         d.Callsign,
		Grid:             d.Grid,
		PowerDBm:         d.PowerDBm,
		SNRdB:            d.SNRdB,
		FreqOffsetHz:     d.FreqOffsetHz,
		DriftHzPerSec:    d.DriftHzPerSec,
		MessageType:      int(d.MessageType),
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("mqtt: marshal spot: %w", err)
	}

	topic := fmt.Sprintf("%s/spots/%s", p.topicPrefix, band)
	token := p.client.Publish(topic, p.qos, p.retain, data)
	go func() {
		token.Wait()
		if err := token.Error(); err != nil {
			log.Printf("mqtt: publish %s: %v", topic, err)
		}
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// Disconnect gracefully closes the broker connection.
func (p *MQTTPublisher) Disconnect() {
	if p == nil || p.client == nil {
		return
	}
	if p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}
