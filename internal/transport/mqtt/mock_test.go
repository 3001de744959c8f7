package mqtt

import (
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

type mockToken struct {
	err      error
	complete bool
}

func newMockToken(err error) *mockToken { return &mockToken{err: err, complete: true} }

func (t *mockToken) Wait() bool                     { return t.complete }
func (t *mockToken) WaitTimeout(time.Duration) bool { return t.complete }
func (t *mockToken) Error() error                   { return t.err }

func (t *mockToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	if t.complete {
		close(ch)
	}
	return ch
}

type sentMessage struct {
	Topic   string
	Payload []byte
	QoS     byte
	Retain  bool
}

// mockClient implements paho.Client, recording publishes in memory.
type mockClient struct {
	mu           sync.Mutex
	connected    bool
	connectErr   error
	publishErr   error
	stall        bool
	messages     []sentMessage
	disconnected bool
}

var _ paho.Client = (*mockClient)(nil)

func newMockClient(connected bool) *mockClient { return &mockClient{connected: connected} }

func (c *mockClient) setPublishErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.publishErr = err
}

func (c *mockClient) sent() []sentMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]sentMessage, len(c.messages))
	copy(out, c.messages)
	return out
}

func (c *mockClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *mockClient) IsConnectionOpen() bool { return c.IsConnected() }

func (c *mockClient) Connect() paho.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stall {
		return &mockToken{}
	}
	if c.connectErr == nil {
		c.connected = true
	}
	return newMockToken(c.connectErr)
}

func (c *mockClient) Disconnect(uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	c.disconnected = true
}

func (c *mockClient) Publish(topic string, qos byte, retained bool, payload any) paho.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		return newMockToken(paho.ErrNotConnected)
	}
	if c.stall {
		return &mockToken{}
	}
	if c.publishErr != nil {
		return newMockToken(c.publishErr)
	}
	var b []byte
	switch v := payload.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	}
	c.messages = append(c.messages, sentMessage{Topic: topic, Payload: b, QoS: qos, Retain: retained})
	return newMockToken(nil)
}

func (c *mockClient) Subscribe(string, byte, paho.MessageHandler) paho.Token {
	return newMockToken(nil)
}

func (c *mockClient) SubscribeMultiple(map[string]byte, paho.MessageHandler) paho.Token {
	return newMockToken(nil)
}

func (c *mockClient) Unsubscribe(...string) paho.Token { return newMockToken(nil) }

func (c *mockClient) AddRoute(string, paho.MessageHandler) {}

func (c *mockClient) OptionsReader() paho.ClientOptionsReader { return paho.ClientOptionsReader{} }
