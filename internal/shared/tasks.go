package shared

// Task types routed through asynq.
const (
	TypeFinesSweep = "fines:sweep"
)

// Queue names, in priority order.
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)
