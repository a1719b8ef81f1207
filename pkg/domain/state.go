package domain

// WorkflowState はワークフローコントローラーの状態です。
// Idle, Submitting, Polling, Succeeded, Failed のいずれかで、各状態はその状態で有効なデータだけを持ちます。
type WorkflowState interface {
	// Name はログ表示用の状態名を返します。
	Name() string
	workflowState()
}

// Idle はまだ何も送信していない状態です。
type Idle struct{}

// Submitting はジョブを送信中で、ハンドルをまだ受け取っていない状態です。
type Submitting struct{}

// Polling はジョブハンドルを受け取り、完了を待っている状態です。
type Polling struct {
	JobName  string
	Attempts int
}

// Succeeded は動画の取得まで完了した状態です。
type Succeeded struct {
	Video Video
}

// Failed はいずれかの段階で失敗した終端状態です。
type Failed struct {
	Kind    ErrorKind
	Message string
}

func (Idle) Name() string       { return "idle" }
func (Submitting) Name() string { return "submitting" }
func (Polling) Name() string    { return "polling" }
func (Succeeded) Name() string  { return "succeeded" }
func (Failed) Name() string     { return "failed" }

func (Idle) workflowState()       {}
func (Submitting) workflowState() {}
func (Polling) workflowState()    {}
func (Succeeded) workflowState()  {}
func (Failed) workflowState()     {}

// IsBusy は送信中またはポーリング中なら true を返します。
func IsBusy(s WorkflowState) bool {
	switch s.(type) {
	case Submitting, Polling:
		return true
	}
	return false
}

// IsTerminal は Succeeded または Failed なら true を返します。
func IsTerminal(s WorkflowState) bool {
	switch s.(type) {
	case Succeeded, Failed:
		return true
	}
	return false
}
