package kafka_client

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKafkaConfig(t *testing.T) {
	assert.False(t, KafkaConfig{}.Enabled())
	assert.True(t, KafkaConfig{Broker: "localhost:9092"}.Enabled())

	assert.Equal(t, KAFKA_TOPIC_PIPELINE_EVENTS, KafkaConfig{}.topic())
	assert.Equal(t, "custom", KafkaConfig{Topic: "custom"}.topic())
}
