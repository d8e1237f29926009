package main

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/arty021/bad-modems/internal/report"
)

// eventPublisher announces finished analyses over MQTT. A nil publisher
// drops events.
type eventPublisher struct {
	client mqtt.Client
	cfg    mqttConfig
	log    *zap.Logger
}

// analysisEvent is the payload published after every successful upload.
type analysisEvent struct {
	City          report.City        `json:"city"`
	Timestamp     time.Time          `json:"timestamp"`
	TotalModems   int                `json:"total_modems"`
	HealthPercent float64            `json:"health_percent"`
	NewEntries    *report.NewEntries `json:"new_entries_summary,omitempty"`
}

func newAnalysisEvent(city report.City, res *report.Result) analysisEvent {
	return analysisEvent{
		City:          city,
		Timestamp:     res.Timestamp.UTC(),
		TotalModems:   res.Summary.TotalModems,
		HealthPercent: res.Summary.HealthyPercentage,
		NewEntries:    res.NewEntries,
	}
}

func analysisTopic(prefix string, city report.City) string {
	return fmt.Sprintf("%s/%s/analysis", prefix, city)
}

func mqttClientID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return "bad_modems_" + hex.EncodeToString(b)
}

// newEventPublisher connects to the broker. A failed first connection is
// logged and retried in the background.
func newEventPublisher(cfg mqttConfig, log *zap.Logger) *eventPublisher {
	if !cfg.Enabled {
		return nil
	}

	scheme := "tcp"
	if cfg.UseTLS {
		scheme = "tls"
	}
	broker := fmt.Sprintf("%s://%s:%d", scheme, cfg.Host, cfg.Port)

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(mqttClientID())
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(10 * time.Second)
	opts.SetMaxReconnectInterval(time.Minute)
	opts.SetKeepAlive(time.Minute)
	opts.SetConnectTimeout(5 * time.Second)
	opts.SetOnConnectHandler(func(mqtt.Client) {
		log.Info("mqtt connected", zap.String("broker", broker))
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warn("mqtt connection lost", zap.Error(err))
	})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(5 * time.Second) {
		log.Warn("mqtt connect timeout, retrying in background", zap.String("broker", broker))
	} else if err := token.Error(); err != nil {
		log.Warn("mqtt connect failed, retrying in background", zap.String("broker", broker), zap.Error(err))
	}

	return &eventPublisher{client: client, cfg: cfg, log: log}
}

func (p *eventPublisher) publishAnalysis(city report.City, res *report.Result) {
	if p == nil {
		return
	}
	if !p.client.IsConnected() {
		p.log.Warn("mqtt not connected, dropping analysis event", zap.String("city", string(city)))
		return
	}
	payload, err := json.Marshal(newAnalysisEvent(city, res))
	if err != nil {
		p.log.Error("encode analysis event", zap.Error(err))
		return
	}
	topic := analysisTopic(p.cfg.TopicPrefix, city)
	token := p.client.Publish(topic, p.cfg.QoS, p.cfg.Retain, payload)
	go func() {
		if token.WaitTimeout(10*time.Second) && token.Error() != nil {
			p.log.Warn("mqtt publish failed", zap.String("topic", topic), zap.Error(token.Error()))
		}
	}()
}

func (p *eventPublisher) close() {
	if p == nil {
		return
	}
	p.client.Disconnect(250)
}
