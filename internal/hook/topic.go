package hook

// Topic names a document lifecycle event.
type Topic string

// Lifecycle topics, in the order a document normally sees them.
const (
	// TopicOpened is published after a document is loaded.
	TopicOpened Topic = "buffer.opened"

	// TopicCloned is published for the new document of a clone.
	TopicCloned Topic = "buffer.cloned"

	// TopicPreSave is published before a document is written.
	// Listeners may still edit the buffer.
	TopicPreSave Topic = "buffer.presave"

	// TopicSaved is published after a document was written.
	TopicSaved Topic = "buffer.saved"

	// TopicClosed is published when a document is closed.
	TopicClosed Topic = "buffer.closed"
)

// String returns the topic as a string.
func (t Topic) String() string {
	return string(t)
}

// Topics returns all lifecycle topics.
func Topics() []Topic {
	return []Topic{TopicOpened, TopicCloned, TopicPreSave, TopicSaved, TopicClosed}
}
