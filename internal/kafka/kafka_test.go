package kafka

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

func TestParseBrokers(t *testing.T) {
	cases := map[string][]string{
		"":                   {DefaultBroker},
		"  ":                 {DefaultBroker},
		"a:9092":             {"a:9092"},
		" a:9092 , ,b:9092 ": {"a:9092", "b:9092"},
	}
	for raw, want := range cases {
		if got := ParseBrokers(raw); !reflect.DeepEqual(got, want) {
			t.Errorf("ParseBrokers(%q) = %v, want %v", raw, got, want)
		}
	}
}

func TestWaitForBrokerRequiresBrokers(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := WaitForBroker(ctx, nil); err == nil {
		t.Fatal("expected error without brokers")
	}
	if err := EnsureTopic(ctx, nil, DefaultEventsTopic, 0); err == nil {
		t.Fatal("expected error without brokers")
	}
}

func TestNewWriter(t *testing.T) {
	w := NewWriter([]string{"localhost:9092"}, DefaultEventsTopic)
	defer w.Close()
	if w.Topic != DefaultEventsTopic {
		t.Errorf("writer topic = %q", w.Topic)
	}
	if _, ok := w.Balancer.(*kafka.Hash); !ok {
		t.Errorf("balancer = %T, want *kafka.Hash", w.Balancer)
	}
}
