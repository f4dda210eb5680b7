package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types
const (
	UserCreated = "user.created"
	UserUpdated = "user.updated"
	UserDeleted = "user.deleted"

	LoginSucceeded = "auth.login.succeeded"
	LoginFailed    = "auth.login.failed"

	OrgCreated = "org.created"
	OrgUpdated = "org.updated"
	OrgDeleted = "org.deleted"

	StationCreated = "station.created"
	StationUpdated = "station.updated"
	StationDeleted = "station.deleted"
)

// Stream names
const (
	UserEventsStream    = "user.events"
	AuthEventsStream    = "auth.events"
	OrgEventsStream     = "org.events"
	StationEventsStream = "station.events"
)

// Base event structure
type Event struct {
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// DecodeData unmarshals the payload of event into T.
func DecodeData[T any](event Event) (T, error) {
	var data T
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return data, fmt.Errorf("failed to unmarshal %s event: %w", event.Type, err)
	}
	return data, nil
}

// User events
type UserCreatedEvent struct {
	UserID  int64  `json:"userId"`
	Account string `json:"account"`
	Name    string `json:"name"`
}

type UserUpdatedEvent struct {
	UserID  int64  `json:"userId"`
	Account string `json:"account"`
	Name    string `json:"name"`
}

type UserDeletedEvent struct {
	UserIDs []int64 `json:"userIds"`
}

// LoginEvent reports a login attempt that changed the login columns of a
// user: last_login_time on success, the error counter on failure.
type LoginEvent struct {
	UserID  int64     `json:"userId"`
	Account string    `json:"account"`
	At      time.Time `json:"at"`
}

// Org events
type OrgCreatedEvent struct {
	OrgID    int64  `json:"orgId"`
	ParentID int64  `json:"parentId"`
	Name     string `json:"name"`
}

type OrgUpdatedEvent struct {
	OrgID    int64  `json:"orgId"`
	ParentID int64  `json:"parentId"`
	Name     string `json:"name"`
}

// OrgDeletedEvent lists every removed org, descendants included.
type OrgDeletedEvent struct {
	OrgIDs []int64 `json:"orgIds"`
}

// Station events
type StationCreatedEvent struct {
	StationID int64  `json:"stationId"`
	OrgID     *int64 `json:"orgId,omitempty"`
	Name      string `json:"name"`
}

type StationUpdatedEvent struct {
	StationID int64  `json:"stationId"`
	OrgID     *int64 `json:"orgId,omitempty"`
	Name      string `json:"name"`
}

type StationDeletedEvent struct {
	StationIDs []int64 `json:"stationIds"`
}
