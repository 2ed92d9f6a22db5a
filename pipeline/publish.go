package pipeline

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/russe11bryan/TripTally-sub000/models"
)

// Publisher pushes live state and forecast updates to downstream consumers.
// Publishing is best-effort: a failed publish never fails the cycle.
type Publisher interface {
	PublishState(state *models.CIState) error
	PublishForecast(forecast *models.CIForecast) error
	Close()
}

// NopPublisher is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishState(*models.CIState) error       { return nil }
func (NopPublisher) PublishForecast(*models.CIForecast) error { return nil }
func (NopPublisher) Close()                                   {}

// MQTTPublisher publishes JSON records to per-camera topics.
type MQTTPublisher struct {
	client mqtt.Client
}

func NewMQTTPublisher(brokerURL string) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL)
	opts.SetClientID("triptally-processor-" + time.Now().Format("20060102150405"))
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.OnConnectionLost = func(client mqtt.Client, err error) {
		log.Printf("mqtt connection lost: %v", err)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	token.Wait()
	if token.Error() != nil {
		return nil, fmt.Errorf("mqtt connection failed: %w", token.Error())
	}
	return &MQTTPublisher{client: client}, nil
}

func (p *MQTTPublisher) PublishState(state *models.CIState) error {
	return p.publish("triptally/ci/"+state.CameraID, state)
}

func (p *MQTTPublisher) PublishForecast(forecast *models.CIForecast) error {
	return p.publish("triptally/forecast/"+forecast.CameraID, forecast)
}

func (p *MQTTPublisher) publish(topic string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	token := p.client.Publish(topic, 0, false, data)
	token.Wait()
	return token.Error()
}

func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}
