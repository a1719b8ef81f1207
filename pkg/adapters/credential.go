package adapters

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/shouni/gemini-video-kit/pkg/domain"
	"github.com/shouni/gemini-video-kit/pkg/generator"
	"golang.org/x/term"
)

// EnvCredentialStore は設定や環境変数から読み込んだ API キーを保持します。
type EnvCredentialStore struct {
	mu  sync.RWMutex
	key string
}

// NewEnvCredentialStore は与えられたキーで EnvCredentialStore を作成します。
func NewEnvCredentialStore(key string) *EnvCredentialStore {
	return &EnvCredentialStore{key: strings.TrimSpace(key)}
}

func (s *EnvCredentialStore) HasSelectedKey(ctx context.Context) (bool, error) {
	return s.Key() != "", nil
}

// SelectKey は選択フローを持たないため何もしません。
func (s *EnvCredentialStore) SelectKey(ctx context.Context) error {
	return nil
}

func (s *EnvCredentialStore) Key() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.key
}

// SetKey はキーを差し替えます。
func (s *EnvCredentialStore) SetKey(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.key = strings.TrimSpace(key)
}

// TerminalCredentialStore は端末からキーを入力させる選択フローを持つ CredentialStore です。
// 端末に接続されている場合は入力をエコーしません。
type TerminalCredentialStore struct {
	*EnvCredentialStore
	in  io.Reader
	out io.Writer
}

// NewTerminalCredentialStore は初期キーと入出力を指定して作成します。
func NewTerminalCredentialStore(key string, in io.Reader, out io.Writer) *TerminalCredentialStore {
	return &TerminalCredentialStore{
		EnvCredentialStore: NewEnvCredentialStore(key),
		in:                 in,
		out:                out,
	}
}

// SelectKey はキーの入力を求め、入力された値を保持します。
func (s *TerminalCredentialStore) SelectKey(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fmt.Fprint(s.out, "Gemini API key (paid project required for Veo): ")

	key, err := s.readKey()
	fmt.Fprintln(s.out)
	if err != nil {
		return fmt.Errorf("API キーの読み取りに失敗しました: %w", err)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return domain.ErrCredentialMissing
	}
	s.SetKey(key)
	return nil
}

func (s *TerminalCredentialStore) readKey() (string, error) {
	if f, ok := s.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		return string(b), err
	}
	line, err := bufio.NewReader(s.in).ReadString('\n')
	if err != nil && !(err == io.EOF && line != "") {
		return "", err
	}
	return line, nil
}

var (
	_ generator.CredentialStore = (*EnvCredentialStore)(nil)
	_ generator.CredentialStore = (*TerminalCredentialStore)(nil)
)
