package generator

import (
	"context"

	"github.com/shouni/gemini-video-kit/pkg/domain"
)

// VideoService はリモートの動画生成サービスとのやり取りを担当します。
type VideoService interface {
	// Submit はジョブを送信し、サービスが払い出したハンドルと完了フラグを返します。
	Submit(ctx context.Context, payload JobPayload) (*domain.Job, error)
	// Poll は前回のジョブハンドルを元に最新の状態を取得します。
	Poll(ctx context.Context, job *domain.Job) (*domain.Job, error)
}

// MediaFetcher は完了したジョブの結果ロケーターから動画バイナリを取得します。
type MediaFetcher interface {
	Fetch(ctx context.Context, resultURI, apiKey string) (*domain.Video, error)
}

// CredentialStore はホスト環境が提供する API キーの操作を抽象化します。
type CredentialStore interface {
	// HasSelectedKey は利用可能なキーがすでに選択されているかを問い合わせます。
	HasSelectedKey(ctx context.Context) (bool, error)
	// SelectKey はキー選択フローを開きます。呼び出し側は成功したものとして扱います。
	SelectKey(ctx context.Context) error
	// Key は現在のキーを返します。未選択なら空文字です。
	Key() string
}

// StateObserver は状態遷移のたびに呼ばれます。
type StateObserver func(domain.WorkflowState)
