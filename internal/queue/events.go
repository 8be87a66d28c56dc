package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types carried on the timeline stream.
const (
	EventPostCreated    = "post_created"
	EventPostDeleted    = "post_deleted"
	EventUserFollowed   = "user_followed"
	EventUserUnfollowed = "user_unfollowed"
)

const (
	StreamTimeline        = "stream:timeline"
	ConsumerGroupTimeline = "timeline_workers"
)

// Event is a graph or content change that the timeline workers replay
// onto the cached per-user feeds.
type Event struct {
	Type string `json:"type"`
	At   int64  `json:"at"` // unix micros

	PostID   int64 `json:"post_id,omitempty"`
	AuthorID int64 `json:"author_id,omitempty"`

	FollowerID int64 `json:"follower_id,omitempty"`
	FolloweeID int64 `json:"followee_id,omitempty"`
}

func PostCreated(postID, authorID int64, createdAt time.Time) Event {
	return Event{Type: EventPostCreated, At: createdAt.UnixMicro(), PostID: postID, AuthorID: authorID}
}

func PostDeleted(postID, authorID int64) Event {
	return Event{Type: EventPostDeleted, At: time.Now().UnixMicro(), PostID: postID, AuthorID: authorID}
}

func UserFollowed(followerID, followeeID int64) Event {
	return Event{Type: EventUserFollowed, At: time.Now().UnixMicro(), FollowerID: followerID, FolloweeID: followeeID}
}

func UserUnfollowed(followerID, followeeID int64) Event {
	return Event{Type: EventUserUnfollowed, At: time.Now().UnixMicro(), FollowerID: followerID, FolloweeID: followeeID}
}

// values serializes the event for XADD as a single JSON "data" field.
func (e Event) values() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{"type": e.Type, "data": string(data)}, nil
}

func parseEvent(values map[string]interface{}) (Event, error) {
	data, ok := values["data"].(string)
	if !ok {
		return Event{}, fmt.Errorf("missing or invalid 'data' field")
	}
	var e Event
	if err := json.Unmarshal([]byte(data), &e); err != nil {
		return Event{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return e, nil
}
