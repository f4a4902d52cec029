package domain

import "context"

// KeyValueStore is the persistence port behind favorites, comments and the
// last AI search. Values are whole JSON documents.
type KeyValueStore interface {
	// Get reports found=false for a missing key.
	Get(ctx context.Context, key string) (val []byte, found bool, err error)
	Set(ctx context.Context, key string, val []byte) error
	Delete(ctx context.Context, key string) error
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completer sends a conversation to a text-completion endpoint and returns
// the raw model output.
type Completer interface {
	Complete(ctx context.Context, conversation []Message) (string, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// Catalog is the read-only city source.
type Catalog interface {
	Cities() []City
	City(id int64) (City, bool)
	Detail(id int64) string
	AllowList() AllowList
}

type EventKind string

const (
	EventFavorites EventKind = "favorites"
	EventComments  EventKind = "comments"
)

type Event struct {
	Kind   EventKind `json:"kind"`
	CityID int64     `json:"cityId,omitempty"`
}

// Publisher receives store change notifications.
type Publisher interface {
	Publish(Event)
}
