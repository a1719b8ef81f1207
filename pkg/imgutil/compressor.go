package imgutil

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"net/http"
	"strings"

	_ "golang.org/x/image/webp"

	"github.com/shouni/gemini-video-kit/pkg/domain"
)

// ReferenceJPEGQuality は Veo が受け付けない形式を JPEG に変換するときの品質です。
const ReferenceJPEGQuality = 90

// CompressToJPEG は画像データ（PNG, GIF, WebP, JPEG等）をJPEG形式に圧縮します。
// image.Decodeがサポートするフォーマットに対応しています。
func CompressToJPEG(data []byte, quality int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DetectImageMIME はバイト列から画像の MIME タイプを判定します。画像でなければエラーです。
func DetectImageMIME(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("画像データが空です")
	}
	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return "", fmt.Errorf("画像ではないデータです (detected: %s)", mimeType)
	}
	return mimeType, nil
}

// PrepareReference は参照画像を送信可能な形に整えます。
// PNG と JPEG はそのまま使い、それ以外のデコード可能な形式は JPEG に変換します。
func PrepareReference(data []byte) (*domain.ReferenceImage, error) {
	mimeType, err := DetectImageMIME(data)
	if err != nil {
		return nil, err
	}

	switch mimeType {
	case "image/png", "image/jpeg":
		return &domain.ReferenceImage{Data: data, MIMEType: mimeType}, nil
	}

	converted, err := CompressToJPEG(data, ReferenceJPEGQuality)
	if err != nil {
		return nil, fmt.Errorf("%s を JPEG に変換できませんでした: %w", mimeType, err)
	}
	return &domain.ReferenceImage{Data: converted, MIMEType: "image/jpeg"}, nil
}
