package kafka

import (
	"testing"

	kafkago "github.com/segmentio/kafka-go"
)

func TestNewProducer(t *testing.T) {
	p := NewProducer(Config{Brokers: []string{"localhost:9092", "localhost:9093"}})
	if p == nil {
		t.Fatal("expected non-nil producer")
	}
	if len(p.brokers) != 2 {
		t.Fatalf("expected 2 brokers, got %d", len(p.brokers))
	}
	if len(p.writers) != 0 {
		t.Errorf("expected empty writers map, got %d entries", len(p.writers))
	}
}

func TestToKafkaMessages(t *testing.T) {
	msgs := toKafkaMessages([]Message{{
		Key:   []byte("loan-123"),
		Value: []byte(`{"emi_no":1}`),
		Headers: map[string]string{
			"event_type": "repayment.installment.paid",
		},
	}})

	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if string(msgs[0].Key) != "loan-123" {
		t.Errorf("expected key loan-123, got %s", msgs[0].Key)
	}
	if len(msgs[0].Headers) != 1 || msgs[0].Headers[0].Key != "event_type" {
		t.Errorf("unexpected headers: %+v", msgs[0].Headers)
	}
}

func TestFromKafkaMessage(t *testing.T) {
	msg := fromKafkaMessage(kafkago.Message{
		Key:     []byte("k"),
		Value:   []byte("v"),
		Headers: []kafkago.Header{{Key: "event_id", Value: []byte("e-1")}},
	})
	if msg.Headers["event_id"] != "e-1" {
		t.Errorf("expected event_id header, got %v", msg.Headers)
	}
}

func TestGetOrCreateWriter(t *testing.T) {
	p := NewProducer(Config{Brokers: []string{"localhost:9092"}})

	w1 := p.getOrCreateWriter("topic-a")
	w2 := p.getOrCreateWriter("topic-a")
	if w1 != w2 {
		t.Error("expected same writer instance for same topic")
	}
	if _, ok := w1.Balancer.(*kafkago.Hash); !ok {
		t.Errorf("expected key-hash balancer, got %T", w1.Balancer)
	}

	w3 := p.getOrCreateWriter("topic-b")
	if w1 == w3 {
		t.Error("expected different writer instance for different topic")
	}
	if len(p.writers) != 2 {
		t.Errorf("expected 2 writers, got %d", len(p.writers))
	}
}

func TestGetOrCreateWriterWithTLS(t *testing.T) {
	p := NewProducer(Config{Brokers: []string{"localhost:9092"}, TLS: true})
	w := p.getOrCreateWriter("topic-a")
	if w.Transport == nil {
		t.Fatal("expected transport to be configured when TLS is enabled")
	}
}

func TestSASLMechanism(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantNil bool
	}{
		{"disabled", Config{SASLMechanism: "PLAIN"}, true},
		{"plain", Config{SASLEnabled: true, SASLMechanism: "PLAIN", SASLUsername: "u", SASLPassword: "p"}, false},
		{"default is plain", Config{SASLEnabled: true}, false},
		{"scram 512", Config{SASLEnabled: true, SASLMechanism: "SCRAM-SHA-512", SASLUsername: "u", SASLPassword: "p"}, false},
		{"unknown", Config{SASLEnabled: true, SASLMechanism: "GSSAPI"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.cfg.saslMechanism()
			if (got == nil) != tt.wantNil {
				t.Errorf("saslMechanism() nil = %v, want %v", got == nil, tt.wantNil)
			}
		})
	}
}

func TestProducerClose(t *testing.T) {
	p := NewProducer(Config{Brokers: []string{"localhost:9092"}})
	_ = p.getOrCreateWriter("topic-a")
	_ = p.getOrCreateWriter("topic-b")

	if err := p.Close(); err != nil {
		t.Fatalf("unexpected error on close: %v", err)
	}
	if len(p.writers) != 0 {
		t.Errorf("expected 0 writers after close, got %d", len(p.writers))
	}
}
