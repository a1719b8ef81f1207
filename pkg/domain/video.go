package domain

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// AspectRatio は生成する動画の縦横比です。
type AspectRatio string

const (
	AspectRatioLandscape AspectRatio = "16:9"
	AspectRatioPortrait  AspectRatio = "9:16"
)

// Resolution は生成する動画の解像度です。
type Resolution string

const (
	Resolution720p  Resolution = "720p"
	Resolution1080p Resolution = "1080p"
)

// ParseAspectRatio は文字列を AspectRatio に変換します。空文字は既定値 (16:9) になります。
func ParseAspectRatio(s string) (AspectRatio, error) {
	switch AspectRatio(strings.TrimSpace(s)) {
	case "", AspectRatioLandscape:
		return AspectRatioLandscape, nil
	case AspectRatioPortrait:
		return AspectRatioPortrait, nil
	}
	return "", fmt.Errorf("unsupported aspect ratio: %q", s)
}

// ParseResolution は文字列を Resolution に変換します。空文字は既定値 (720p) になります。
func ParseResolution(s string) (Resolution, error) {
	switch Resolution(strings.ToLower(strings.TrimSpace(s))) {
	case "", Resolution720p:
		return Resolution720p, nil
	case Resolution1080p:
		return Resolution1080p, nil
	}
	return "", fmt.Errorf("unsupported resolution: %q", s)
}

// ReferenceImage は動画生成の初期フレームとして渡す参照画像です。
type ReferenceImage struct {
	Data     []byte
	MIMEType string
}

// Base64 は画像バイト列を送信用の標準 base64 文字列に変換します。
func (r ReferenceImage) Base64() string {
	return base64.StdEncoding.EncodeToString(r.Data)
}

// GenerationRequest は1回の動画生成要求です。送信後は変更しません。
type GenerationRequest struct {
	Prompt      string
	Image       *ReferenceImage // nil なら text-to-video
	AspectRatio AspectRatio
	Resolution  Resolution
}

// Normalize は縦横比と解像度を正規の値 (未指定なら既定値) にそろえたコピーを返します。
// 解釈できない値はそのまま残し、Validate で弾きます。
func (r GenerationRequest) Normalize() GenerationRequest {
	out := r
	if ar, err := ParseAspectRatio(string(r.AspectRatio)); err == nil {
		out.AspectRatio = ar
	}
	if res, err := ParseResolution(string(r.Resolution)); err == nil {
		out.Resolution = res
	}
	if r.Image != nil {
		img := ReferenceImage{
			Data:     append([]byte(nil), r.Image.Data...),
			MIMEType: r.Image.MIMEType,
		}
		out.Image = &img
	}
	return out
}

// Validate はリクエストが送信可能かを検証します。
func (r GenerationRequest) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return ErrEmptyPrompt
	}
	if _, err := ParseAspectRatio(string(r.AspectRatio)); err != nil {
		return err
	}
	if _, err := ParseResolution(string(r.Resolution)); err != nil {
		return err
	}
	if r.Image != nil {
		if len(r.Image.Data) == 0 {
			return fmt.Errorf("reference image is empty")
		}
		if !strings.HasPrefix(r.Image.MIMEType, "image/") {
			return fmt.Errorf("reference image has non-image MIME type: %q", r.Image.MIMEType)
		}
	}
	return nil
}

// Job はリモートサービスが払い出したジョブの最新スナップショットです。
// 状態の更新はサービスへの再問い合わせでのみ行います。
type Job struct {
	Name      string // サービス側のオペレーション名 (不透明なハンドル)
	Done      bool
	ResultURI string

	// FailureMessage はサービスがオペレーション自体の失敗を返した場合のメッセージです。
	FailureMessage string
	// FilteredReasons は安全フィルターで動画が除外された理由です。
	FilteredReasons []string
}

// Video は取得済みの生成動画です。
type Video struct {
	Data      []byte
	MIMEType  string
	SourceURI string
}
