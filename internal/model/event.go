package model

import "time"

// EventAction represents the type of event action.
type EventAction string

const (
	// EventActionETLCompleted is emitted after an external post has been stored in both GPDBs.
	EventActionETLCompleted EventAction = "etl_completed"
)

// ETLCompletedEvent represents the payload for ETL completion events.
type ETLCompletedEvent struct {
	EventID     string      `json:"event_id"`
	PostID      int64       `json:"post_id"`
	Gpdb1ID     int64       `json:"gpdb1_id"`
	Gpdb2ID     int64       `json:"gpdb2_id"`
	Action      EventAction `json:"action"`
	CompletedAt time.Time   `json:"completed_at"`
}
