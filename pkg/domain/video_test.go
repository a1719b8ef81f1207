package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerationRequest_Validate(t *testing.T) {
	png := &ReferenceImage{Data: []byte("0123456789"), MIMEType: "image/png"}

	tests := []struct {
		name    string
		req     GenerationRequest
		wantErr error
	}{
		{"プロンプトのみ", GenerationRequest{Prompt: "夕焼けの海", AspectRatio: AspectRatioLandscape, Resolution: Resolution720p}, nil},
		{"参照画像つき", GenerationRequest{Prompt: "走る猫", Image: png, AspectRatio: AspectRatioPortrait, Resolution: Resolution1080p}, nil},
		{"空のプロンプト", GenerationRequest{Prompt: ""}, ErrEmptyPrompt},
		{"空白だけのプロンプト", GenerationRequest{Prompt: "  \n\t"}, ErrEmptyPrompt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}

	t.Run("未知の縦横比はエラー", func(t *testing.T) {
		err := GenerationRequest{Prompt: "x", AspectRatio: "4:3"}.Validate()
		assert.Error(t, err)
	})

	t.Run("画像以外のMIMEタイプはエラー", func(t *testing.T) {
		err := GenerationRequest{Prompt: "x", Image: &ReferenceImage{Data: []byte("a"), MIMEType: "text/plain"}}.Validate()
		assert.Error(t, err)
	})
}

func TestGenerationRequest_Normalize(t *testing.T) {
	img := &ReferenceImage{Data: []byte{1, 2, 3}, MIMEType: "image/png"}
	req := GenerationRequest{Prompt: "p", Image: img}

	got := req.Normalize()

	assert.Equal(t, AspectRatioLandscape, got.AspectRatio)
	assert.Equal(t, Resolution720p, got.Resolution)
	require.NotNil(t, got.Image)

	// 呼び出し側が元の画像を書き換えても送信済みリクエストには影響しない
	img.Data[0] = 9
	assert.Equal(t, byte(1), got.Image.Data[0])
}

func TestGenerationRequest_NormalizeCanonicalizes(t *testing.T) {
	got := GenerationRequest{Prompt: "p", AspectRatio: " 9:16 ", Resolution: "1080P"}.Normalize()

	assert.Equal(t, AspectRatioPortrait, got.AspectRatio)
	assert.Equal(t, Resolution1080p, got.Resolution)

	bad := GenerationRequest{Prompt: "p", AspectRatio: "4:3"}.Normalize()
	assert.Equal(t, AspectRatio("4:3"), bad.AspectRatio)
	assert.Error(t, bad.Validate())
}

func TestReferenceImage_Base64(t *testing.T) {
	img := ReferenceImage{Data: []byte("0123456789"), MIMEType: "image/png"}
	assert.Equal(t, "MDEyMzQ1Njc4OQ==", img.Base64())
}

func TestParseEnums(t *testing.T) {
	ar, err := ParseAspectRatio("9:16")
	require.NoError(t, err)
	assert.Equal(t, AspectRatioPortrait, ar)

	res, err := ParseResolution("1080P")
	require.NoError(t, err)
	assert.Equal(t, Resolution1080p, res)

	_, err = ParseResolution("4k")
	assert.Error(t, err)
}
