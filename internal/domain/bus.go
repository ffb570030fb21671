package domain

// MessageBus routes messages between the channel and the ingestor.
// Publish order is delivery order: the ingestor is the single consumer.
type MessageBus interface {
	Publish(msg Message)
	Subscribe() <-chan Message
	Ack(a Ack)
	OnAck(channelName string, handler func(Ack))
	Close()
}
