package mqtt

import "context"

// Client is the publish/subscribe transport used by the collector and the
// simulator
type Client interface {
	// Connect establishes a connection to the broker, honouring ctx for the wait
	Connect(ctx context.Context) error

	// Disconnect closes the connection to the broker
	Disconnect()

	// Subscribe registers handler for topic; subscriptions survive reconnects
	Subscribe(topic string, qos byte, handler MessageHandler) error

	// Publish publishes a payload and waits for the broker to accept it
	Publish(topic string, qos byte, retained bool, payload []byte) error

	// IsConnected returns whether the client currently holds a live connection
	IsConnected() bool
}

// MessageHandler is invoked on the client's delivery goroutine; it must not block
type MessageHandler func(Message)

// Message is one inbound publish
type Message interface {
	Topic() string
	Payload() []byte
	Ack()
}
