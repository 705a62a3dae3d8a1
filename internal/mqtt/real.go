package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// sendQueueCap bounds how many messages are held while disconnected.
const sendQueueCap = 64

// RealPublisher publishes to an actual MQTT broker. Connection management
// is left to the paho client's retry machinery; while disconnected,
// messages are queued and replayed on reconnect so the event loop never
// blocks on the network.
type RealPublisher struct {
	client paho.Client

	mu      sync.Mutex
	pending *sendQueue
}

// NewRealPublisher creates a publisher for the given broker. It does not
// wait for the connection; the broker being down must not keep the
// indicator from working.
func NewRealPublisher(broker string) *RealPublisher {
	p := &RealPublisher{pending: newSendQueue(sendQueueCap)}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID("diskled").
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(p.onConnect)

	p.client = paho.NewClient(opts)
	p.client.Connect()
	return p
}

func (p *RealPublisher) onConnect(c paho.Client) {
	p.mu.Lock()
	msgs := p.pending.drain()
	p.mu.Unlock()

	for _, m := range msgs {
		c.Publish(m.topic, m.qos, m.retained, m.payload)
	}
	if len(msgs) > 0 {
		log.Printf("mqtt: connected, replayed %d queued messages", len(msgs))
	}
}

func (p *RealPublisher) publish(topic string, qos byte, retained bool, payload []byte) error {
	if !p.client.IsConnected() {
		p.mu.Lock()
		p.pending.push(outbound{topic: topic, payload: payload, qos: qos, retained: retained})
		p.mu.Unlock()
		return nil
	}

	token := p.client.Publish(topic, qos, retained, payload)
	if qos == 0 {
		// Fire and forget; waiting here would stall the event loop.
		return nil
	}
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// PublishActivity sends an indicator transition at QoS 0.
func (p *RealPublisher) PublishActivity(event Event) error {
	payload, err := FormatActivityPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	return p.publish(TopicActivity, 0, false, payload)
}

// PublishSystem sends a lifecycle event at QoS 1; startup and shutdown
// messages are worth waiting for.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.publish(TopicSystem, 1, event.Retained, payload)
}

// IsConnected reports the broker connection state.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnected()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
