package mqtt

import "testing"

func TestRingBufferEmpty(t *testing.T) {
	rb := newRingBuffer(10)

	if rb.len() != 0 {
		t.Errorf("expected empty buffer, got %d", rb.len())
	}
	if got := rb.drainAll(); got != nil {
		t.Errorf("expected nil from empty drain, got %v", got)
	}
}

func TestRingBufferPushAndDrain(t *testing.T) {
	rb := newRingBuffer(10)
	for i := 0; i < 5; i++ {
		rb.push(bufferedMsg{topic: "t", payload: []byte{byte(i)}})
	}

	if rb.len() != 5 {
		t.Fatalf("expected 5 buffered, got %d", rb.len())
	}

	msgs := rb.drainAll()
	if len(msgs) != 5 {
		t.Fatalf("expected 5 drained, got %d", len(msgs))
	}
	for i, m := range msgs {
		if m.payload[0] != byte(i) {
			t.Errorf("msg %d: got payload %d, want %d (oldest first)", i, m.payload[0], i)
		}
	}
	if rb.len() != 0 {
		t.Errorf("buffer not empty after drain: %d", rb.len())
	}
}

func TestRingBufferOverflowDropsOldest(t *testing.T) {
	const capacity = 4
	rb := newRingBuffer(capacity)
	for i := 0; i < capacity+3; i++ {
		rb.push(bufferedMsg{topic: "t", payload: []byte{byte(i)}})
	}

	if rb.len() != capacity {
		t.Fatalf("expected len %d after overflow, got %d", capacity, rb.len())
	}

	msgs := rb.drainAll()
	// Messages 0..2 were dropped; 3..6 remain in order.
	for i, m := range msgs {
		want := byte(i + 3)
		if m.payload[0] != want {
			t.Errorf("msg %d: got %d, want %d", i, m.payload[0], want)
		}
	}
}

func TestRingBufferReusableAfterDrain(t *testing.T) {
	rb := newRingBuffer(3)
	rb.push(bufferedMsg{topic: "a"})
	rb.drainAll()

	rb.push(bufferedMsg{topic: "b"})
	rb.push(bufferedMsg{topic: "c"})

	msgs := rb.drainAll()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 after refill, got %d", len(msgs))
	}
	if msgs[0].topic != "b" || msgs[1].topic != "c" {
		t.Errorf("unexpected order: %s, %s", msgs[0].topic, msgs[1].topic)
	}
}

func TestRingBufferOverflowFlagResetsOnDrain(t *testing.T) {
	rb := newRingBuffer(2)
	for i := 0; i < 4; i++ {
		rb.push(bufferedMsg{topic: "t"})
	}
	if !rb.overflow {
		t.Error("expected overflow flag after dropping messages")
	}

	rb.drainAll()
	if rb.overflow {
		t.Error("overflow flag should reset on drain")
	}
}

func TestRingBufferPreservesMessageFields(t *testing.T) {
	rb := newRingBuffer(5)
	rb.push(bufferedMsg{
		topic:    TopicSystem,
		payload:  []byte(`{"system":{}}`),
		qos:      1,
		retained: true,
	})

	msgs := rb.drainAll()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	m := msgs[0]
	if m.topic != TopicSystem || m.qos != 1 || !m.retained || string(m.payload) != `{"system":{}}` {
		t.Errorf("fields not preserved: %+v", m)
	}
}
