package topics

const (
	// Kafka
	WardEvents     = "ward_events"
	ReplayResolved = "replay_resolved"

	// Redis Pub/Sub
	WardEventsBroadcast     = "ward_events_broadcast"
	ReplayResolvedBroadcast = "replay_resolved_broadcast"
)
