package pubsub

// Pack is a single message of a topic. The key identifies the entity the
// message belongs to, so all messages of one entity land in one partition.
type Pack struct {
	Key []byte
	Msg []byte
}
