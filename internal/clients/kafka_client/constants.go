package kafka_client

import "time"

const (
	KAFKA_TOPIC_PIPELINE_EVENTS = "reviewflow-pipeline-events" // search.stored and analysis.stored notifications
	KAFKA_DEFAULT_GROUP_ID      = "reviewflow-events-tail"
)

const (
	FLUSH_TIMEOUT_MS = 5000
	TXN_TIMEOUT      = 10 * time.Second
	POLL_TIMEOUT     = 500 * time.Millisecond
)
