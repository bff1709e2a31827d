package producer

import (
	"context"
	"testing"

	"wavewords/core/internal/telemetry"
)

func TestNewKafkaProducerDisabled(t *testing.T) {
	if p := NewKafkaProducer(nil, "topic"); p != nil {
		t.Error("no brokers should disable the producer")
	}
	if p := NewKafkaProducer([]string{"localhost:9092"}, ""); p != nil {
		t.Error("no topic should disable the producer")
	}
}

func TestNilProducerIsSafe(t *testing.T) {
	var p *KafkaProducer
	if err := p.Emit(context.Background(), &telemetry.CallEvent{SessionID: "call_1_abc"}); err != nil {
		t.Errorf("nil producer Emit: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("nil producer Close: %v", err)
	}
}

func TestEmitNilEvent(t *testing.T) {
	p := NewKafkaProducer([]string{"localhost:9092"}, "topic")
	defer p.Close()
	if err := p.Emit(context.Background(), nil); err != nil {
		t.Errorf("nil event should be a no-op: %v", err)
	}
}
