package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shouni/gemini-video-kit/pkg/domain"
)

// Option は Controller の任意設定です。
type Option func(*Controller)

// WithPollInterval はポーリング間隔を変更します。
func WithPollInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// WithMaxPollAttempts はポーリング回数の上限を設定します。0 は無制限です。
func WithMaxPollAttempts(n int) Option {
	return func(c *Controller) {
		if n >= 0 {
			c.maxPollAttempts = n
		}
	}
}

// WithLogger はログ出力先を差し替えます。
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithSleeper はポーリング間の待機処理を差し替えます。
func WithSleeper(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Controller) {
		if fn != nil {
			c.sleep = fn
		}
	}
}

// Controller は動画生成ジョブの送信・ポーリング・結果取得を1本のワークフローとして管理します。
// 1インスタンスにつき同時に進行できるジョブは1つだけです。
type Controller struct {
	service VideoService
	fetcher MediaFetcher
	creds   CredentialStore

	pollInterval    time.Duration
	maxPollAttempts int
	sleep           func(ctx context.Context, d time.Duration) error
	logger          *slog.Logger

	mu            sync.Mutex
	state         domain.WorkflowState
	hasCredential bool
	observers     []StateObserver
}

// NewController は依存関係を注入して Controller を初期化します。
func NewController(service VideoService, fetcher MediaFetcher, creds CredentialStore, opts ...Option) (*Controller, error) {
	if service == nil {
		return nil, fmt.Errorf("service (VideoService) is required")
	}
	if fetcher == nil {
		return nil, fmt.Errorf("fetcher (MediaFetcher) is required")
	}
	if creds == nil {
		return nil, fmt.Errorf("creds (CredentialStore) is required")
	}

	c := &Controller{
		service:      service,
		fetcher:      fetcher,
		creds:        creds,
		pollInterval: DefaultPollInterval,
		sleep:        sleepContext,
		logger:       slog.Default(),
		state:        domain.Idle{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// State は現在の状態を返します。
func (c *Controller) State() domain.WorkflowState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Observe は状態遷移の通知先を登録します。通知は遷移した順に同期的に行われます。
func (c *Controller) Observe(fn StateObserver) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

// HasCredential はキャッシュしている「キー選択済み」フラグを返します。
func (c *Controller) HasCredential() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasCredential
}

// RefreshCredential はホスト環境にキーの有無を問い合わせ、フラグを更新します。
func (c *Controller) RefreshCredential(ctx context.Context) (bool, error) {
	ok, err := c.creds.HasSelectedKey(ctx)
	if err != nil {
		return false, fmt.Errorf("API キーの確認に失敗しました: %w", err)
	}
	c.mu.Lock()
	c.hasCredential = ok
	c.mu.Unlock()
	return ok, nil
}

// SelectCredential はキー選択フローを開き、成功したものとしてフラグを立てます。
func (c *Controller) SelectCredential(ctx context.Context) error {
	if err := c.creds.SelectKey(ctx); err != nil {
		return fmt.Errorf("API キーの選択に失敗しました: %w", err)
	}
	c.mu.Lock()
	c.hasCredential = true
	c.mu.Unlock()
	return nil
}

// Reset は終端状態から Idle に戻します。処理中は何もしません。
func (c *Controller) Reset() {
	c.mu.Lock()
	if domain.IsBusy(c.state) {
		c.mu.Unlock()
		return
	}
	c.state = domain.Idle{}
	observers := append([]StateObserver(nil), c.observers...)
	c.mu.Unlock()

	notify(observers, domain.Idle{})
}

// Submit はリクエストを送信し、ジョブが終端状態になるまでポーリングして結果を取得します。
// 失敗は Failed 状態として返し、error を返すのは入力不正と ErrBusy の場合だけです。
func (c *Controller) Submit(ctx context.Context, req domain.GenerationRequest) (domain.WorkflowState, error) {
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return c.State(), fmt.Errorf("invalid generation request: %w", err)
	}

	if !c.begin() {
		return c.State(), ErrBusy
	}

	logger := c.logger.With("submission_id", uuid.NewString())
	logger.InfoContext(ctx, "動画生成ジョブを送信します",
		"aspect_ratio", req.AspectRatio,
		"resolution", req.Resolution,
		"has_image", req.Image != nil,
	)

	return c.run(ctx, logger, req), nil
}

func (c *Controller) run(ctx context.Context, logger *slog.Logger, req domain.GenerationRequest) domain.WorkflowState {
	job, err := c.service.Submit(ctx, NewJobPayload(req))
	if err != nil {
		return c.fail(ctx, logger, domain.ErrorKindSubmission, err)
	}
	if job == nil || job.Name == "" {
		return c.fail(ctx, logger, domain.ErrorKindSubmission, errors.New("service returned no job handle"))
	}
	c.setState(domain.Polling{JobName: job.Name})

	attempts := 0
	for !job.Done {
		if c.maxPollAttempts > 0 && attempts >= c.maxPollAttempts {
			return c.fail(ctx, logger, domain.ErrorKindPoll,
				fmt.Errorf("job %s did not finish after %d status checks", job.Name, attempts))
		}
		if err := c.sleep(ctx, c.pollInterval); err != nil {
			return c.fail(ctx, logger, domain.ErrorKindPoll, err)
		}

		next, err := c.service.Poll(ctx, job)
		if err != nil {
			return c.fail(ctx, logger, domain.ErrorKindPoll, err)
		}
		if next == nil {
			return c.fail(ctx, logger, domain.ErrorKindPoll, errors.New("service returned an empty job status"))
		}
		if next.Name == "" {
			next.Name = job.Name
		}
		job = next
		attempts++

		logger.DebugContext(ctx, "ジョブの状態を確認しました", "job", job.Name, "attempt", attempts, "done", job.Done)
		c.setState(domain.Polling{JobName: job.Name, Attempts: attempts})
	}

	if job.FailureMessage != "" {
		return c.fail(ctx, logger, domain.ErrorKindPoll, errors.New(job.FailureMessage))
	}
	if job.ResultURI == "" {
		msg := resultMissingMessage
		if len(job.FilteredReasons) > 0 {
			msg += " " + strings.Join(job.FilteredReasons, " ")
		}
		return c.fail(ctx, logger, domain.ErrorKindResultMissing,
			&domain.WorkflowError{Kind: domain.ErrorKindResultMissing, Message: msg})
	}

	video, err := c.fetcher.Fetch(ctx, job.ResultURI, c.creds.Key())
	if err != nil {
		return c.fail(ctx, logger, domain.ErrorKindFetch, err)
	}
	if video == nil || len(video.Data) == 0 {
		return c.fail(ctx, logger, domain.ErrorKindFetch, errors.New("downloaded video is empty"))
	}

	logger.InfoContext(ctx, "動画の取得が完了しました", "job", job.Name, "bytes", len(video.Data), "polls", attempts)
	st := domain.Succeeded{Video: *video}
	c.setState(st)
	return st
}

// begin は処理中でなければ Submitting に遷移して true を返します。
func (c *Controller) begin() bool {
	c.mu.Lock()
	if domain.IsBusy(c.state) {
		c.mu.Unlock()
		return false
	}
	c.state = domain.Submitting{}
	observers := append([]StateObserver(nil), c.observers...)
	c.mu.Unlock()

	notify(observers, domain.Submitting{})
	return true
}

func (c *Controller) fail(ctx context.Context, logger *slog.Logger, kind domain.ErrorKind, err error) domain.WorkflowState {
	wfErr := Classify(kind, err)
	if wfErr.Kind == domain.ErrorKindCredentialInvalid {
		c.mu.Lock()
		c.hasCredential = false
		c.mu.Unlock()
	}

	logger.WarnContext(ctx, "動画生成に失敗しました", "kind", wfErr.Kind, "error", err)
	st := wfErr.State()
	c.setState(st)
	return st
}

func (c *Controller) setState(s domain.WorkflowState) {
	c.mu.Lock()
	c.state = s
	observers := append([]StateObserver(nil), c.observers...)
	c.mu.Unlock()

	notify(observers, s)
}

func notify(observers []StateObserver, s domain.WorkflowState) {
	for _, fn := range observers {
		fn(s)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
