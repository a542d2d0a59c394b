package kafka_client

type KafkaConfig struct {
	Broker        string
	Topic         string
	TransactionID string
	// GroupID is only used by EventConsumer.
	GroupID string
}

// Enabled reports whether a broker was configured. Without one the pipeline
// runs with no event publishing.
func (c KafkaConfig) Enabled() bool {
	return c.Broker != ""
}

func (c KafkaConfig) topic() string {
	if c.Topic == "" {
		return KAFKA_TOPIC_PIPELINE_EVENTS
	}
	return c.Topic
}
