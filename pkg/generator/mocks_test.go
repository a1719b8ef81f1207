package generator

import (
	"context"
	"sync"
	"time"

	"github.com/shouni/gemini-video-kit/pkg/domain"
)

// --- Mocks ---

// mockVideoService は VideoService のテスト用モックです。
// pollDoneAfter 回目の Poll で done=true を返します。
type mockVideoService struct {
	mu            sync.Mutex
	submitErr     error
	pollErr       error
	pollDoneAfter int
	resultURI     string
	failure       string
	filtered      []string
	submitDone    bool

	payloads  []JobPayload
	pollCalls int

	// onPoll は Poll の直前に呼ばれます (nil 可)。
	onPoll func(call int)
	// onSubmit は Submit の最初に呼ばれます (nil 可)。
	onSubmit func()
}

func (m *mockVideoService) Submit(ctx context.Context, payload JobPayload) (*domain.Job, error) {
	if m.onSubmit != nil {
		m.onSubmit()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payloads = append(m.payloads, payload)
	if m.submitErr != nil {
		return nil, m.submitErr
	}
	job := &domain.Job{Name: "models/veo/operations/op-1", Done: m.submitDone}
	if job.Done {
		job.ResultURI = m.resultURI
	}
	return job, nil
}

func (m *mockVideoService) Poll(ctx context.Context, job *domain.Job) (*domain.Job, error) {
	m.mu.Lock()
	m.pollCalls++
	call := m.pollCalls
	hook := m.onPoll
	m.mu.Unlock()

	if hook != nil {
		hook(call)
	}
	if m.pollErr != nil {
		return nil, m.pollErr
	}
	next := &domain.Job{Name: job.Name}
	if call >= m.pollDoneAfter {
		next.Done = true
		next.ResultURI = m.resultURI
		next.FailureMessage = m.failure
		next.FilteredReasons = m.filtered
	}
	return next, nil
}

// mockFetcher は MediaFetcher のテスト用モックです。
type mockFetcher struct {
	data   []byte
	err    error
	gotURI string
	gotKey string
	called bool
}

func (m *mockFetcher) Fetch(ctx context.Context, resultURI, apiKey string) (*domain.Video, error) {
	m.called = true
	m.gotURI = resultURI
	m.gotKey = apiKey
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Video{Data: m.data, MIMEType: "video/mp4", SourceURI: resultURI}, nil
}

// mockCredentials は CredentialStore のテスト用モックです。
type mockCredentials struct {
	has         bool
	hasErr      error
	key         string
	selectCalls int
}

func (m *mockCredentials) HasSelectedKey(ctx context.Context) (bool, error) {
	return m.has, m.hasErr
}

func (m *mockCredentials) SelectKey(ctx context.Context) error {
	m.selectCalls++
	m.has = true
	return nil
}

func (m *mockCredentials) Key() string {
	return m.key
}

// noSleep はポーリング間隔を待たずに即座に戻ります。
func noSleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}
