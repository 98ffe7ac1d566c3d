package model

import (
	"strings"
	"time"
)

// Event types written by the ETL use case.
const (
	EventTypePostTitle = "POST_TITLE"
	EventTypePostBody  = "POST_BODY"
)

// AnalyticsData represents an append-only analytics record stored in a GPDB.
type AnalyticsData struct {
	ID         int64     `json:"id"`
	EventType  string    `json:"eventType"`
	EventData  string    `json:"eventData"`
	OccurredAt time.Time `json:"occurredAt"`
	CreatedAt  time.Time `json:"createdAt"`
}

// NewAnalyticsData creates an unsaved analytics record occurring now.
func NewAnalyticsData(eventType, eventData string) (*AnalyticsData, error) {
	if strings.TrimSpace(eventType) == "" {
		return nil, ErrInvalidEventType
	}

	return &AnalyticsData{
		EventType:  eventType,
		EventData:  eventData,
		OccurredAt: time.Now().UTC(),
	}, nil
}

// Clone returns a copy of the record.
func (a *AnalyticsData) Clone() *AnalyticsData {
	if a == nil {
		return nil
	}

	c := *a

	return &c
}
