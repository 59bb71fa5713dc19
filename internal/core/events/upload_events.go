package events

const (
	EventTypeUploadCompleted = "upload.completed"
	EventTypeUploadDeleted   = "upload.deleted"
)

type UploadKind string

const (
	UploadKindProfilePicture UploadKind = "profile_picture"
	UploadKindTask           UploadKind = "task"
	UploadKindProject        UploadKind = "project"
	UploadKindDocument       UploadKind = "document"
)

// UploadCompletedEvent is published once per stored file. Token is the uploader's
// backend credential so subscribers can act on their behalf; it is never serialized.
type UploadCompletedEvent struct {
	BaseEvent
	Kind     UploadKind `json:"kind"`
	Key      string     `json:"key"`
	URL      string     `json:"url"`
	UserID   string     `json:"user_id"`
	Token    string     `json:"-"`
	Size     int64      `json:"size"`
	MimeType string     `json:"mime_type"`
}

func NewUploadCompletedEvent(kind UploadKind, key, url, userID, token string, size int64, mimeType string) *UploadCompletedEvent {
	return &UploadCompletedEvent{
		BaseEvent: newBaseEvent(EventTypeUploadCompleted, map[string]interface{}{
			"kind":    kind,
			"key":     key,
			"url":     url,
			"user_id": userID,
		}),
		Kind:     kind,
		Key:      key,
		URL:      url,
		UserID:   userID,
		Token:    token,
		Size:     size,
		MimeType: mimeType,
	}
}

type UploadDeletedEvent struct {
	BaseEvent
	Key    string `json:"key"`
	UserID string `json:"user_id"`
}

func NewUploadDeletedEvent(key, userID string) *UploadDeletedEvent {
	return &UploadDeletedEvent{
		BaseEvent: newBaseEvent(EventTypeUploadDeleted, map[string]interface{}{
			"key":     key,
			"user_id": userID,
		}),
		Key:    key,
		UserID: userID,
	}
}
