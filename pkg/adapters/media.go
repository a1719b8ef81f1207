package adapters

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/shouni/gemini-video-kit/pkg/domain"
	"github.com/shouni/gemini-video-kit/pkg/generator"
	"github.com/shouni/go-http-kit/pkg/httpkit"
)

// MaxVideoBytes はダウンロードする動画の最大サイズです。
const MaxVideoBytes = int64(512 << 20)

// HTTPClient は1回だけリクエストを送るクライアントです。httpkit.Client の Do が満たします。
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPMediaFetcher は結果ロケーターに API キーを付与して動画をダウンロードします。
// 失敗しても再試行はしません。
type HTTPMediaFetcher struct {
	httpClient HTTPClient
	maxBytes   int64
}

// NewHTTPMediaFetcher は HTTP クライアントを注入して HTTPMediaFetcher を初期化します。
func NewHTTPMediaFetcher(httpClient HTTPClient) (*HTTPMediaFetcher, error) {
	if httpClient == nil {
		return nil, fmt.Errorf("httpClient is required")
	}
	return &HTTPMediaFetcher{httpClient: httpClient, maxBytes: MaxVideoBytes}, nil
}

// Fetch は動画を取得します。返すエラーに API キーは含めません。
func (f *HTTPMediaFetcher) Fetch(ctx context.Context, resultURI, apiKey string) (*domain.Video, error) {
	target, err := withAPIKey(resultURI, apiKey)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, redact(fmt.Errorf("failed to build video request: %w", err), apiKey)
	}
	req.Header.Set("User-Agent", httpkit.UserAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, redact(fmt.Errorf("failed to fetch video: %w", err), apiKey)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// ステータスとボディの整形は httpkit に任せる
		_, err := httpkit.HandleResponse(resp)
		if err == nil {
			err = fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		return nil, redact(fmt.Errorf("failed to fetch video (status %d): %w", resp.StatusCode, err), apiKey)
	}

	data, err := readLimited(resp.Body, f.maxBytes)
	if err != nil {
		return nil, redact(fmt.Errorf("failed to fetch video: %w", err), apiKey)
	}

	mimeType := http.DetectContentType(data)
	if mimeType == "application/octet-stream" {
		mimeType = "video/mp4"
	}
	return &domain.Video{Data: data, MIMEType: mimeType, SourceURI: resultURI}, nil
}

func readLimited(body io.ReadCloser, limit int64) ([]byte, error) {
	defer body.Close()
	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み込みに失敗しました: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("動画が大きすぎます (上限 %d bytes)", limit)
	}
	return data, nil
}

// withAPIKey は結果ロケーターに key クエリを付与します。http(s) 以外のスキームは拒否します。
func withAPIKey(rawURL, apiKey string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid result URI: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported result URI scheme: %q", u.Scheme)
	}
	if apiKey == "" {
		return u.String(), nil
	}
	q := u.Query()
	q.Set("key", apiKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// redactedError はメッセージから API キーを伏せたエラーです。errors.Is / As は元のエラーに届きます。
type redactedError struct {
	msg   string
	cause error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.cause }

// redact は err のメッセージに含まれる API キーを "***" に置き換えます。
// クエリに入るキーは URL エンコードされるため、その形も置き換えます。
func redact(err error, apiKey string) error {
	if err == nil || apiKey == "" {
		return err
	}
	msg := err.Error()
	for _, k := range []string{url.QueryEscape(apiKey), apiKey} {
		msg = strings.ReplaceAll(msg, k, "***")
	}
	return &redactedError{msg: msg, cause: err}
}

var (
	_ generator.MediaFetcher = (*HTTPMediaFetcher)(nil)
	_ HTTPClient             = (*httpkit.Client)(nil)
)
