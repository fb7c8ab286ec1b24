package mqtt

// FakePublisher records published status events for test assertions.
type FakePublisher struct {
	// StatusEvents contains all status events that were published.
	StatusEvents []StatusEvent

	// StatusPayloads contains the JSON payloads for status events.
	StatusPayloads [][]byte

	// PublishError, if set, will be returned by PublishStatus.
	PublishError error

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// PublishStatus records the status event.
func (f *FakePublisher) PublishStatus(event StatusEvent) error {
	if f.PublishError != nil {
		return f.PublishError
	}

	f.StatusEvents = append(f.StatusEvents, event)

	payload, err := FormatStatusPayload(event)
	if err != nil {
		return err
	}
	f.StatusPayloads = append(f.StatusPayloads, payload)

	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

// IsConnected reports whether the fake publisher is "connected".
func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// Reset clears recorded events.
func (f *FakePublisher) Reset() {
	f.StatusEvents = nil
	f.StatusPayloads = nil
	f.Closed = false
	f.PublishError = nil
	f.Connected = false
}
