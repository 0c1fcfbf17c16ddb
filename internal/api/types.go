package api

import (
	"strings"
	"time"
)

// Kind selects the media family an operation targets.
type Kind string

const (
	KindVideo Kind = "video"
	KindImage Kind = "image"
)

// ParseKind converts a string into a known Kind.
func ParseKind(value string) (Kind, bool) {
	switch Kind(strings.ToLower(strings.TrimSpace(value))) {
	case KindVideo:
		return KindVideo, true
	case KindImage:
		return KindImage, true
	default:
		return "", false
	}
}

// KindForMIME classifies a MIME type into a media kind. Anything that is not
// an image uploads through the video endpoints, mirroring the service's own
// routing.
func KindForMIME(mimeType string) Kind {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(mimeType)), "image/") {
		return KindImage
	}
	return KindVideo
}

// Artifact distinguishes a media asset's original byte-stream from a
// conversion output.
type Artifact string

const (
	ArtifactOriginal  Artifact = "original"
	ArtifactConverted Artifact = "converted"
)

// JobStatus is the lifecycle of a server-side conversion job.
type JobStatus string

const (
	JobQueued     JobStatus = "queued"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// Terminal reports whether no further status transition can occur.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// ParseJobStatus converts a string into a known JobStatus.
func ParseJobStatus(value string) (JobStatus, bool) {
	switch JobStatus(strings.ToLower(strings.TrimSpace(value))) {
	case JobQueued:
		return JobQueued, true
	case JobProcessing:
		return JobProcessing, true
	case JobCompleted:
		return JobCompleted, true
	case JobFailed:
		return JobFailed, true
	default:
		return "", false
	}
}

// TokenPair is the credential pair issued by the auth endpoints.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// User is the account record returned by the trust-probe endpoint.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// MediaAsset is an uploaded video or image as the server reports it.
// PreviewPath and ThumbnailPath are populated asynchronously for videos once
// server-side preview generation finishes; the client can only observe the
// transition by re-listing.
type MediaAsset struct {
	ID                 int64     `json:"id"`
	OriginalFilename   string    `json:"original_filename"`
	OriginalFormat     string    `json:"original_format"`
	OriginalResolution string    `json:"original_resolution"`
	FileSize           int64     `json:"file_size"`
	ThumbnailPath      string    `json:"thumbnail_path"`
	PreviewPath        string    `json:"preview_path"`
	CreatedAt          time.Time `json:"created_at"`
}

// ConversionJob is the client's read-only mirror of a server-side job. It is
// replaced wholesale on every status fetch and never mutated locally.
type ConversionJob struct {
	ID               int64     `json:"id"`
	VideoID          int64     `json:"video_id,omitempty"`
	ImageID          int64     `json:"image_id,omitempty"`
	TargetFormat     string    `json:"target_format"`
	TargetResolution string    `json:"target_resolution"`
	TargetBitrate    string    `json:"target_bitrate,omitempty"`
	TargetFps        string    `json:"target_fps,omitempty"`
	TargetCodec      string    `json:"target_codec,omitempty"`
	Quality          int       `json:"quality,omitempty"`
	KeepAudio        bool      `json:"keep_audio,omitempty"`
	CleanMetadata    bool      `json:"clean_metadata,omitempty"`
	Status           JobStatus `json:"status"`
	Progress         int       `json:"progress"`
	OutputPath       string    `json:"output_path,omitempty"`
	DownloadURL      string    `json:"download_url,omitempty"`
	ErrorMessage     string    `json:"error_message,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// MediaID returns the id of the asset this job converts.
func (j ConversionJob) MediaID() int64 {
	if j.ImageID != 0 {
		return j.ImageID
	}
	return j.VideoID
}

// HistoryItem pairs a conversion with the asset it was produced from.
// Exactly one of Video or Image is set depending on the kind queried.
type HistoryItem struct {
	Video      *MediaAsset   `json:"video,omitempty"`
	Image      *MediaAsset   `json:"image,omitempty"`
	Conversion ConversionJob `json:"conversion"`
}

// Media returns whichever asset the item carries.
func (h HistoryItem) Media() *MediaAsset {
	if h.Video != nil {
		return h.Video
	}
	return h.Image
}
