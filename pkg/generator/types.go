package generator

import (
	"errors"
	"time"

	"github.com/shouni/gemini-video-kit/pkg/domain"
)

const (
	DefaultPollInterval = 10 * time.Second

	entityNotFoundPattern    = "requested entity was not found"
	credentialInvalidMessage = "API key is invalid or does not have access to the video model. Please select a valid API key and try again."
	resultMissingMessage     = "Video generation finished, but no download link was found."
)

// ErrBusy は送信中またはポーリング中に Submit が呼ばれたことを示します。
var ErrBusy = errors.New("a generation is already in progress")

// EncodedImage は送信用に base64 変換した参照画像です。
type EncodedImage struct {
	Base64   string
	MIMEType string
}

// JobPayload はリモートサービスへ送信する内容そのものです。
type JobPayload struct {
	Prompt      string
	Image       *EncodedImage
	AspectRatio domain.AspectRatio
	Resolution  domain.Resolution
}

// NewJobPayload は正規化済みのリクエストから送信ペイロードを組み立てます。
func NewJobPayload(req domain.GenerationRequest) JobPayload {
	p := JobPayload{
		Prompt:      req.Prompt,
		AspectRatio: req.AspectRatio,
		Resolution:  req.Resolution,
	}
	if req.Image != nil {
		p.Image = &EncodedImage{
			Base64:   req.Image.Base64(),
			MIMEType: req.Image.MIMEType,
		}
	}
	return p
}
