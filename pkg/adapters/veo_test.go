package adapters

import (
	"context"
	"errors"
	"testing"

	"github.com/shouni/gemini-video-kit/pkg/domain"
	"github.com/shouni/gemini-video-kit/pkg/generator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestVeoService_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("参照画像をデコードして設定とともに送信する", func(t *testing.T) {
		models := &mockModels{op: &genai.GenerateVideosOperation{Name: "models/veo/operations/abc"}}
		svc := newVeoService(models, &mockOperations{}, "")

		job, err := svc.Submit(ctx, generator.JobPayload{
			Prompt:      "桜の下を歩く猫",
			Image:       &generator.EncodedImage{Base64: "MDEyMzQ1Njc4OQ==", MIMEType: "image/png"},
			AspectRatio: domain.AspectRatioPortrait,
			Resolution:  domain.Resolution1080p,
		})

		require.NoError(t, err)
		assert.Equal(t, &domain.Job{Name: "models/veo/operations/abc"}, job)
		assert.Equal(t, DefaultVeoModel, models.gotModel)
		assert.Equal(t, "桜の下を歩く猫", models.gotPrompt)
		require.NotNil(t, models.gotImage)
		assert.Equal(t, []byte("0123456789"), models.gotImage.ImageBytes)
		assert.Equal(t, "image/png", models.gotImage.MIMEType)
		assert.Equal(t, int32(1), models.gotConfig.NumberOfVideos)
		assert.Equal(t, "9:16", models.gotConfig.AspectRatio)
		assert.Equal(t, "1080p", models.gotConfig.Resolution)
	})

	t.Run("画像なしなら image は nil", func(t *testing.T) {
		models := &mockModels{op: &genai.GenerateVideosOperation{Name: "op"}}
		svc := newVeoService(models, &mockOperations{}, "veo-3.0-generate-001")

		_, err := svc.Submit(ctx, generator.JobPayload{Prompt: "p"})

		require.NoError(t, err)
		assert.Nil(t, models.gotImage)
		assert.Equal(t, "veo-3.0-generate-001", models.gotModel)
	})

	t.Run("不正な base64 はエラー", func(t *testing.T) {
		svc := newVeoService(&mockModels{}, &mockOperations{}, "")

		_, err := svc.Submit(ctx, generator.JobPayload{Prompt: "p", Image: &generator.EncodedImage{Base64: "***", MIMEType: "image/png"}})

		assert.Error(t, err)
	})

	t.Run("API エラーはそのまま返す", func(t *testing.T) {
		apiErr := errors.New("Requested entity was not found.")
		svc := newVeoService(&mockModels{err: apiErr}, &mockOperations{}, "")

		_, err := svc.Submit(ctx, generator.JobPayload{Prompt: "p"})

		assert.ErrorIs(t, err, apiErr)
	})
}

func TestVeoService_Poll(t *testing.T) {
	ctx := context.Background()

	t.Run("完了したオペレーションから URI を取り出す", func(t *testing.T) {
		ops := &mockOperations{op: &genai.GenerateVideosOperation{
			Name: "op-1",
			Done: true,
			Response: &genai.GenerateVideosResponse{
				GeneratedVideos: []*genai.GeneratedVideo{{Video: &genai.Video{URI: "https://example.com/v.mp4"}}},
			},
		}}
		svc := newVeoService(&mockModels{}, ops, "")

		job, err := svc.Poll(ctx, &domain.Job{Name: "op-1"})

		require.NoError(t, err)
		assert.Equal(t, "op-1", ops.gotName)
		assert.True(t, job.Done)
		assert.Equal(t, "https://example.com/v.mp4", job.ResultURI)
	})

	t.Run("未完了", func(t *testing.T) {
		svc := newVeoService(&mockModels{}, &mockOperations{op: &genai.GenerateVideosOperation{Name: "op-1"}}, "")

		job, err := svc.Poll(ctx, &domain.Job{Name: "op-1"})

		require.NoError(t, err)
		assert.False(t, job.Done)
		assert.Empty(t, job.ResultURI)
	})

	t.Run("オペレーションのエラーを FailureMessage にする", func(t *testing.T) {
		ops := &mockOperations{op: &genai.GenerateVideosOperation{
			Name:  "op-1",
			Done:  true,
			Error: map[string]any{"code": float64(13), "message": "internal error"},
		}}
		svc := newVeoService(&mockModels{}, ops, "")

		job, err := svc.Poll(ctx, &domain.Job{Name: "op-1"})

		require.NoError(t, err)
		assert.Equal(t, "internal error", job.FailureMessage)
	})

	t.Run("安全フィルターで除外された場合は理由だけ返す", func(t *testing.T) {
		ops := &mockOperations{op: &genai.GenerateVideosOperation{
			Name: "op-1",
			Done: true,
			Response: &genai.GenerateVideosResponse{
				RAIMediaFilteredCount:   1,
				RAIMediaFilteredReasons: []string{"blocked by safety filter"},
			},
		}}
		svc := newVeoService(&mockModels{}, ops, "")

		job, err := svc.Poll(ctx, &domain.Job{Name: "op-1"})

		require.NoError(t, err)
		assert.Empty(t, job.ResultURI)
		assert.Equal(t, []string{"blocked by safety filter"}, job.FilteredReasons)
	})

	t.Run("ハンドルなしはエラー", func(t *testing.T) {
		svc := newVeoService(&mockModels{}, &mockOperations{}, "")
		_, err := svc.Poll(ctx, &domain.Job{})
		assert.Error(t, err)
	})

	t.Run("nil オペレーションはエラー", func(t *testing.T) {
		svc := newVeoService(&mockModels{}, &mockOperations{}, "")
		_, err := svc.Poll(ctx, &domain.Job{Name: "op"})
		assert.Error(t, err)
	})
}

func TestNewVeoService(t *testing.T) {
	_, err := NewVeoService(nil, "")
	assert.Error(t, err)
}
