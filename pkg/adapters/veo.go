package adapters

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"

	"github.com/shouni/gemini-video-kit/pkg/domain"
	"github.com/shouni/gemini-video-kit/pkg/generator"
	"google.golang.org/genai"
)

// DefaultVeoModel は既定で利用する動画生成モデルです。
const DefaultVeoModel = "veo-3.1-fast-generate-preview"

// videoModels は genai.Models のうち動画生成に使う部分です。
type videoModels interface {
	GenerateVideos(ctx context.Context, model string, prompt string, image *genai.Image, config *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error)
}

// videoOperations は genai.Operations のうち動画オペレーションの取得に使う部分です。
type videoOperations interface {
	GetVideosOperation(ctx context.Context, operation *genai.GenerateVideosOperation, config *genai.GetOperationConfig) (*genai.GenerateVideosOperation, error)
}

// VeoService は Gemini API 経由で Veo にジョブを送信し、状態を取得するアダプターです。
type VeoService struct {
	models     videoModels
	operations videoOperations
	model      string
}

// NewVeoService は genai.Client から VeoService を初期化します。
func NewVeoService(client *genai.Client, model string) (*VeoService, error) {
	if client == nil {
		return nil, fmt.Errorf("client (*genai.Client) is required")
	}
	return newVeoService(client.Models, client.Operations, model), nil
}

func newVeoService(models videoModels, operations videoOperations, model string) *VeoService {
	if model == "" {
		model = DefaultVeoModel
	}
	return &VeoService{models: models, operations: operations, model: model}
}

// Model は利用するモデル名を返します。
func (s *VeoService) Model() string {
	return s.model
}

// Submit はペイロードを genai の動画生成リクエストに変換して送信します。
func (s *VeoService) Submit(ctx context.Context, payload generator.JobPayload) (*domain.Job, error) {
	var image *genai.Image
	if payload.Image != nil {
		data, err := base64.StdEncoding.DecodeString(payload.Image.Base64)
		if err != nil {
			return nil, fmt.Errorf("参照画像のデコードに失敗しました: %w", err)
		}
		image = &genai.Image{ImageBytes: data, MIMEType: payload.Image.MIMEType}
	}

	cfg := &genai.GenerateVideosConfig{
		NumberOfVideos: 1,
		AspectRatio:    string(payload.AspectRatio),
		Resolution:     string(payload.Resolution),
	}

	slog.InfoContext(ctx, "Veo に動画生成をリクエストします", "model", s.model, "with_image", image != nil)
	op, err := s.models.GenerateVideos(ctx, s.model, payload.Prompt, image, cfg)
	if err != nil {
		return nil, err
	}
	return toJob(op)
}

// Poll はオペレーション名を元に最新の状態を取得します。
func (s *VeoService) Poll(ctx context.Context, job *domain.Job) (*domain.Job, error) {
	if job == nil || job.Name == "" {
		return nil, fmt.Errorf("job handle is required")
	}
	op, err := s.operations.GetVideosOperation(ctx, &genai.GenerateVideosOperation{Name: job.Name}, nil)
	if err != nil {
		return nil, err
	}
	return toJob(op)
}

// toJob は genai のオペレーションをドメインの Job に変換します。
func toJob(op *genai.GenerateVideosOperation) (*domain.Job, error) {
	if op == nil {
		return nil, fmt.Errorf("Veo からオペレーションが返されませんでした")
	}

	job := &domain.Job{Name: op.Name, Done: op.Done}
	if !op.Done {
		return job, nil
	}

	if len(op.Error) > 0 {
		job.FailureMessage = operationErrorMessage(op.Error)
		return job, nil
	}

	if op.Response == nil {
		return job, nil
	}
	job.FilteredReasons = op.Response.RAIMediaFilteredReasons
	for _, v := range op.Response.GeneratedVideos {
		if v != nil && v.Video != nil && v.Video.URI != "" {
			job.ResultURI = v.Video.URI
			break
		}
	}
	return job, nil
}

func operationErrorMessage(e map[string]any) string {
	if msg, ok := e["message"].(string); ok && msg != "" {
		return msg
	}
	return fmt.Sprintf("video generation failed: %v", e)
}

var _ generator.VideoService = (*VeoService)(nil)
