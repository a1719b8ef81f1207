package adapters

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/shouni/gemini-video-kit/pkg/domain"
	"github.com/shouni/gemini-video-kit/pkg/imgutil"
	"github.com/shouni/go-remote-io/pkg/gcsfactory"
	"github.com/shouni/go-remote-io/pkg/remoteio"
	"github.com/shouni/go-remote-io/pkg/s3factory"
)

// MaxReferenceImageBytes は参照画像として読み込む最大サイズです。
const MaxReferenceImageBytes = 20 << 20

// ReferenceImageLoader は InputReader 経由で参照画像を読み込み、送信可能な形に整えます。
type ReferenceImageLoader struct {
	reader   remoteio.InputReader
	maxBytes int64
}

// NewReferenceImageLoader は reader を注入して ReferenceImageLoader を初期化します。
func NewReferenceImageLoader(reader remoteio.InputReader) (*ReferenceImageLoader, error) {
	if reader == nil {
		return nil, fmt.Errorf("reader is required")
	}
	return &ReferenceImageLoader{reader: reader, maxBytes: MaxReferenceImageBytes}, nil
}

// Load は uri の画像を読み込みます。
func (l *ReferenceImageLoader) Load(ctx context.Context, uri string) (*domain.ReferenceImage, error) {
	rc, err := l.reader.Open(ctx, localPath(uri))
	if err != nil {
		return nil, fmt.Errorf("参照画像を開けませんでした (%s): %w", uri, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, l.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("参照画像の読み込みに失敗しました (%s): %w", uri, err)
	}
	if int64(len(data)) > l.maxBytes {
		return nil, fmt.Errorf("参照画像が大きすぎます (上限 %d bytes): %s", l.maxBytes, uri)
	}

	return imgutil.PrepareReference(data)
}

// NewReferenceReader は uri に合った remoteio.InputReader を作ります。
// gs:// と s3:// はクラウドのクライアントを初期化し、それ以外はローカルファイルとして読みます。
// 戻り値の io.Closer は使い終わったら必ず閉じてください。
func NewReferenceReader(ctx context.Context, uri string) (remoteio.InputReader, io.Closer, error) {
	var newFactory func(context.Context) (remoteio.IOFactory, error)
	switch {
	case remoteio.IsGCSURI(uri):
		newFactory = gcsfactory.New
	case remoteio.IsS3URI(uri):
		newFactory = s3factory.New
	default:
		return remoteio.NewUniversalInputReader(nil, nil), closerFunc(func() error { return nil }), nil
	}

	factory, err := newFactory(ctx)
	if err != nil {
		return nil, nil, err
	}
	reader, err := factory.InputReader()
	if err != nil {
		_ = factory.Close()
		return nil, nil, err
	}
	return reader, factory, nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// localPath は file:// スキームを外します。
func localPath(uri string) string {
	if remoteio.IsRemoteURI(uri) {
		return uri
	}
	return strings.TrimPrefix(uri, "file://")
}
