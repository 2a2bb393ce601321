package models

import (
	"time"

	"github.com/google/uuid"
)

// MediaType is photo or video.
type MediaType string

const (
	MediaPhoto MediaType = "photo"
	MediaVideo MediaType = "video"
)

// Media is a reference to an uploaded file attached to an event. The blob itself lives in object storage.
type Media struct {
	ID         uuid.UUID `json:"id"`
	EventID    uuid.UUID `json:"event_id"`
	Name       string    `json:"name"`
	Key        string    `json:"key"`
	URL        string    `json:"url"`
	Type       MediaType `json:"type"`
	UploadedAt time.Time `json:"uploaded_at"`
}
