package adapters

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"

	"google.golang.org/genai"
)

// mockModels は videoModels のテスト用モックです。
type mockModels struct {
	op  *genai.GenerateVideosOperation
	err error

	gotModel  string
	gotPrompt string
	gotImage  *genai.Image
	gotConfig *genai.GenerateVideosConfig
}

func (m *mockModels) GenerateVideos(ctx context.Context, model string, prompt string, image *genai.Image, config *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error) {
	m.gotModel = model
	m.gotPrompt = prompt
	m.gotImage = image
	m.gotConfig = config
	return m.op, m.err
}

// mockOperations は videoOperations のテスト用モックです。
type mockOperations struct {
	op      *genai.GenerateVideosOperation
	err     error
	gotName string
}

func (m *mockOperations) GetVideosOperation(ctx context.Context, operation *genai.GenerateVideosOperation, config *genai.GetOperationConfig) (*genai.GenerateVideosOperation, error) {
	m.gotName = operation.Name
	return m.op, m.err
}

// mockHTTPClient は HTTPClient を実装します。
type mockHTTPClient struct {
	doFunc func(req *http.Request) (*http.Response, error)
	calls  int
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	m.calls++
	return m.doFunc(req)
}

func newResponse(status int, body []byte) *http.Response {
	return &http.Response{
		StatusCode:    status,
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Header:        make(http.Header),
	}
}

// mockReader は remoteio.InputReader のテスト用モックです。
type mockReader struct {
	files map[string][]byte
}

func (m *mockReader) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	data, ok := m.files[uri]
	if !ok {
		return nil, errors.New("not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *mockReader) List(ctx context.Context, uri string, fn func(string) error) error {
	for name := range m.files {
		if err := fn(name); err != nil {
			return err
		}
	}
	return nil
}
