package ui

import (
	"sync"
	"time"

	"github.com/shouni/gemini-video-kit/pkg/domain"
)

const DefaultRotationInterval = 3 * time.Second

// DefaultLoadingMessages は生成待ちの間に順番に表示するメッセージです。
var DefaultLoadingMessages = []string{
	"Sending your prompt to the studio...",
	"Storyboarding the first frames...",
	"Setting up lights and camera...",
	"Rendering motion, this usually takes a few minutes...",
	"Polishing the final cut...",
	"Still working, long clips take longer...",
}

// MessageRotator は処理中の間だけ一定間隔でメッセージを切り替えて emit に渡します。
// Stop と Close は goroutine の終了を待ってから戻ります。
type MessageRotator struct {
	interval time.Duration
	messages []string
	emit     func(string)

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewMessageRotator は MessageRotator を作成します。messages が空なら既定のメッセージを使います。
func NewMessageRotator(interval time.Duration, messages []string, emit func(string)) *MessageRotator {
	if interval <= 0 {
		interval = DefaultRotationInterval
	}
	if len(messages) == 0 {
		messages = DefaultLoadingMessages
	}
	if emit == nil {
		emit = func(string) {}
	}
	return &MessageRotator{interval: interval, messages: messages, emit: emit}
}

// Start は最初のメッセージをすぐに出し、以降 interval ごとに切り替えます。起動済みなら何もしません。
func (r *MessageRotator) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stop != nil {
		return
	}
	r.stop = make(chan struct{})
	r.done = make(chan struct{})
	go r.loop(r.stop, r.done)
}

func (r *MessageRotator) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	i := 0
	r.emit(r.messages[i])
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			i = (i + 1) % len(r.messages)
			r.emit(r.messages[i])
		}
	}
}

// Stop はタイマーを止めます。停止済みなら何もしません。
func (r *MessageRotator) Stop() {
	r.mu.Lock()
	stop, done := r.stop, r.done
	r.stop, r.done = nil, nil
	r.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

// Running はタイマーが動いているかを返します。
func (r *MessageRotator) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stop != nil
}

// Observe はコントローラーの状態に合わせてタイマーを開始・停止します。
func (r *MessageRotator) Observe(s domain.WorkflowState) {
	if domain.IsBusy(s) {
		r.Start()
		return
	}
	r.Stop()
}

// Close は Stop と同じです。
func (r *MessageRotator) Close() error {
	r.Stop()
	return nil
}
