package contracts

// Exchanges
const (
	ExchangeNavTopic       = "nav_topic"
	ExchangeLocationFanout = "location_fanout"
)

// Queues
const (
	QueueNavStatus       = "navigation_status"
	QueueLocationUpdates = "location_updates"
)

// Routing patterns
const (
	RouteNavStatusPrefix = "nav.status." // {status}
)
