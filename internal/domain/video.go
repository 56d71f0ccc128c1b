package domain

// VideoStatus is the monotonic lifecycle of a Video row (§3 "Video").
type VideoStatus string

const (
	VideoProcessing VideoStatus = "processing"
	VideoCompleted  VideoStatus = "completed"
	VideoFailed     VideoStatus = "failed"
	VideoDeleted    VideoStatus = "deleted"
)

// Video is the metadata-store row the API surface reads and lists. Row-level
// isolation is enforced at the repository layer: every query filters by the
// authenticated user id (§3, §4.8).
type Video struct {
	VideoID    string      `dynamodbav:"video_id" json:"video_id"`
	UserID     string      `dynamodbav:"user_id" json:"user_id"`
	Prompt     string      `dynamodbav:"prompt" json:"prompt"`
	ObjectKey  string      `dynamodbav:"object_key,omitempty" json:"object_key,omitempty"`
	FileSize   int64       `dynamodbav:"file_size,omitempty" json:"file_size,omitempty"`
	DurationS  float64     `dynamodbav:"duration_s,omitempty" json:"duration_s,omitempty"`
	Width      int         `dynamodbav:"width,omitempty" json:"width,omitempty"`
	Height     int         `dynamodbav:"height,omitempty" json:"height,omitempty"`
	Status     VideoStatus `dynamodbav:"status" json:"status"`
	Tags       []string    `dynamodbav:"tags,omitempty" json:"tags,omitempty"`
	CreatedAt  int64       `dynamodbav:"created_at" json:"created_at"`
	UpdatedAt  int64       `dynamodbav:"updated_at" json:"updated_at"`
}
