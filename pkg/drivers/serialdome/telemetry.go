package serialdome

import (
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
)

// statusMsg is the JSON shape published to the telemetry topic.
type statusMsg struct {
	Azimuth float64 `json:"azimuth"`
	AtHome  bool    `json:"at_home"`
	AtPark  bool    `json:"at_park"`
	Slewing bool    `json:"slewing"`
	Shutter string  `json:"shutter"`
	Link    bool    `json:"link"`
}

// TelemetryPublisher republishes dome status snapshots to an MQTT broker,
// one message per applied device event.
type TelemetryPublisher struct {
	client mqtt.Client
	topic  string
	logger log.FieldLogger
}

// NewTelemetryPublisher connects to the broker described by cfg.
func NewTelemetryPublisher(cfg TelemetryConfig, logger log.FieldLogger) (*TelemetryPublisher, error) {
	opts := mqtt.NewClientOptions()
	opts.SetClientID("domelink-telemetry")
	opts.AddBroker(cfg.Broker)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %v", token.Error())
	}

	return &TelemetryPublisher{
		client: client,
		topic:  cfg.Topic,
		logger: logger.WithField("component", "telemetry"),
	}, nil
}

// Publish sends one status snapshot. Publish failures are logged, not
// propagated; telemetry must never fail a dome operation.
func (p *TelemetryPublisher) Publish(st Status) {
	msg := statusMsg{
		Azimuth: st.Azimuth,
		AtHome:  st.AtHome,
		AtPark:  st.AtPark,
		Slewing: st.Slewing,
		Shutter: st.Shutter.String(),
		Link:    st.Link,
	}

	payload, _ := json.Marshal(msg)
	if token := p.client.Publish(p.topic, 0, false, payload); token.Wait() && token.Error() != nil {
		p.logger.Warnf("Failed to publish status: %v", token.Error())
	}
}

// Close disconnects from the broker.
func (p *TelemetryPublisher) Close() {
	p.client.Disconnect(100)
}
