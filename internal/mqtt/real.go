package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/pwm-led/internal/duty"
)

// outboxCapacity bounds how many status messages are held while the
// broker is unreachable.
const outboxCapacity = 64

// RealClient talks to an actual MQTT broker: it publishes status events
// and applies duty writes arriving on the subscribed topics.
type RealClient struct {
	client paho.Client
	writer DutyWriter

	mu    sync.Mutex
	queue *outbox
}

// NewRealClient connects to the given broker and subscribes to the duty
// write topics. The connection auto-reconnects; status messages
// published while disconnected are queued and replayed on reconnect.
func NewRealClient(broker string, writer DutyWriter) (*RealClient, error) {
	c := &RealClient{
		writer: writer,
		queue:  newOutbox(outboxCapacity),
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID("pwm-led").
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(c.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Printf("mqtt: connection lost: %v", err)
		})

	c.client = paho.NewClient(opts)
	token := c.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return c, nil
}

// onConnect runs on every (re)connect: paho does not restore
// subscriptions across reconnects, so they are re-established here, and
// any queued status messages are replayed.
func (c *RealClient) onConnect(client paho.Client) {
	c.subscribe(client)

	c.mu.Lock()
	queued := c.queue.flush()
	c.mu.Unlock()

	for _, msg := range queued {
		token := client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
		if !token.WaitTimeout(5*time.Second) || token.Error() != nil {
			log.Printf("mqtt: replay to %s failed: %v", msg.topic, token.Error())
		}
	}
	if len(queued) > 0 {
		log.Printf("mqtt: replayed %d queued status messages", len(queued))
	}
}

func (c *RealClient) subscribe(client paho.Client) {
	sub := func(topic string, handler paho.MessageHandler) {
		token := client.Subscribe(topic, 1, handler)
		if !token.WaitTimeout(5*time.Second) || token.Error() != nil {
			log.Printf("mqtt: subscribe %s failed: %v", topic, token.Error())
		}
	}

	sub(TopicDutySet, func(_ paho.Client, msg paho.Message) {
		if err := ApplyTripletWrite(c.writer, msg.Payload()); err != nil {
			log.Printf("mqtt: rejected triplet write %q: %v", msg.Payload(), err)
		}
	})

	for ch := 0; ch < duty.NumChannels; ch++ {
		ch := ch
		sub(ChannelTopic(ch), func(_ paho.Client, msg paho.Message) {
			if err := ApplyChannelWrite(c.writer, ch, msg.Payload()); err != nil {
				log.Printf("mqtt: rejected write to %s %q: %v", ChannelTopic(ch), msg.Payload(), err)
			}
		})
	}
}

// PublishStatus sends a status event to the broker. While disconnected
// the message is queued for replay instead of failing.
func (c *RealClient) PublishStatus(event StatusEvent) error {
	payload, err := FormatStatusPayload(event)
	if err != nil {
		return fmt.Errorf("format status payload: %w", err)
	}

	// QoS 1 (at-least-once): lifecycle events should not get lost.
	if !c.client.IsConnected() {
		c.mu.Lock()
		c.queue.add(queuedMsg{topic: TopicStatus, payload: payload, qos: 1, retained: event.Retained})
		n := c.queue.len()
		c.mu.Unlock()
		log.Printf("mqtt: broker unreachable, queued %s event (%d pending)", event.Event, n)
		return nil
	}

	token := c.client.Publish(TopicStatus, 1, event.Retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish status: %w", err)
	}

	return nil
}

// IsConnected reports whether the broker connection is up.
func (c *RealClient) IsConnected() bool {
	return c.client.IsConnected()
}

// Close disconnects from the broker.
func (c *RealClient) Close() error {
	c.client.Disconnect(1000) // 1 second timeout
	return nil
}
