package mqtt

import "log"

// queuedMsg is a serialized status message waiting for the broker to
// come back.
type queuedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// outbox is a fixed-capacity FIFO holding status messages while the
// broker is unreachable; the oldest message is dropped on overflow.
// Not safe for concurrent use; caller must synchronize.
type outbox struct {
	msgs    []queuedMsg
	start   int // index of the oldest message
	count   int
	dropped bool // a message was dropped since the last flush
}

func newOutbox(capacity int) *outbox {
	return &outbox{msgs: make([]queuedMsg, capacity)}
}

func (o *outbox) add(msg queuedMsg) {
	capacity := len(o.msgs)
	if o.count == capacity {
		if !o.dropped {
			log.Printf("mqtt: outbox full (%d messages), dropping oldest", capacity)
			o.dropped = true
		}
		o.msgs[o.start] = msg
		o.start = (o.start + 1) % capacity
		return
	}
	o.msgs[(o.start+o.count)%capacity] = msg
	o.count++
}

// flush returns the queued messages oldest-first and empties the outbox.
func (o *outbox) flush() []queuedMsg {
	if o.count == 0 {
		return nil
	}

	result := make([]queuedMsg, o.count)
	for i := range result {
		result[i] = o.msgs[(o.start+i)%len(o.msgs)]
	}

	o.start = 0
	o.count = 0
	o.dropped = false
	return result
}

func (o *outbox) len() int {
	return o.count
}
