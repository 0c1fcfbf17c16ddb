package api

import (
	"fmt"
	"strings"
)

// ValidationError rejects bad input before any network call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

const (
	passwordMinLength = 8
	passwordMaxLength = 72
)

// ValidatePassword enforces the service's password length bounds locally.
func ValidatePassword(password string) error {
	if len(password) < passwordMinLength {
		return &ValidationError{Field: "password", Reason: fmt.Sprintf("must be at least %d characters", passwordMinLength)}
	}
	if len(password) > passwordMaxLength {
		return &ValidationError{Field: "password", Reason: fmt.Sprintf("must be %d characters or fewer", passwordMaxLength)}
	}
	return nil
}

// VideoFormats lists the accepted video target formats.
var VideoFormats = []string{"mp4", "mkv", "webm", "avi", "mov"}

// ImageFormats lists the accepted image target formats.
var ImageFormats = []string{"jpg", "png", "webp"}

func formatAllowed(format string, allowed []string) bool {
	for _, candidate := range allowed {
		if candidate == format {
			return true
		}
	}
	return false
}

// ConversionRequest is a kind-specific conversion parameter set. The zero
// value of every optional field means "use source / auto" and is omitted from
// the request body.
type ConversionRequest interface {
	Kind() Kind
	Validate() error
}

// VideoConversionRequest carries the parameters for a video conversion job.
type VideoConversionRequest struct {
	VideoID          int64  `json:"video_id"`
	TargetFormat     string `json:"target_format"`
	TargetResolution string `json:"target_resolution,omitempty"`
	TargetBitrate    string `json:"target_bitrate,omitempty"`
	TargetFps        string `json:"target_fps,omitempty"`
	TargetCodec      string `json:"target_codec,omitempty"`
	KeepAudio        bool   `json:"keep_audio"`
	CleanMetadata    bool   `json:"clean_metadata"`
}

// Kind implements ConversionRequest.
func (VideoConversionRequest) Kind() Kind { return KindVideo }

// Validate implements ConversionRequest.
func (r VideoConversionRequest) Validate() error {
	if r.VideoID <= 0 {
		return &ValidationError{Field: "video", Reason: "a video id is required"}
	}
	format := strings.ToLower(strings.TrimSpace(r.TargetFormat))
	if !formatAllowed(format, VideoFormats) {
		return &ValidationError{Field: "target_format", Reason: fmt.Sprintf("must be one of %s", strings.Join(VideoFormats, ", "))}
	}
	return nil
}

// ImageConversionRequest carries the parameters for an image conversion job.
type ImageConversionRequest struct {
	ImageID          int64  `json:"image_id"`
	TargetFormat     string `json:"target_format"`
	TargetResolution string `json:"target_resolution,omitempty"`
	Quality          int    `json:"quality,omitempty"`
}

// Kind implements ConversionRequest.
func (ImageConversionRequest) Kind() Kind { return KindImage }

// Validate implements ConversionRequest.
func (r ImageConversionRequest) Validate() error {
	if r.ImageID <= 0 {
		return &ValidationError{Field: "image", Reason: "an image id is required"}
	}
	format := strings.ToLower(strings.TrimSpace(r.TargetFormat))
	if !formatAllowed(format, ImageFormats) {
		return &ValidationError{Field: "target_format", Reason: fmt.Sprintf("must be one of %s", strings.Join(ImageFormats, ", "))}
	}
	if r.Quality != 0 && (r.Quality < 10 || r.Quality > 95) {
		return &ValidationError{Field: "quality", Reason: "must be between 10 and 95"}
	}
	return nil
}
