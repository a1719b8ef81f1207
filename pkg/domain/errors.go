package domain

import (
	"errors"
	"fmt"
)

// ErrorKind は失敗の分類です。
type ErrorKind string

const (
	ErrorKindSubmission        ErrorKind = "SUBMISSION_FAILURE"
	ErrorKindPoll              ErrorKind = "POLL_FAILURE"
	ErrorKindResultMissing     ErrorKind = "RESULT_MISSING"
	ErrorKindFetch             ErrorKind = "FETCH_FAILURE"
	ErrorKindCredentialInvalid ErrorKind = "CREDENTIAL_INVALID"
	ErrorKindCancelled         ErrorKind = "CANCELLED"
	ErrorKindUnknown           ErrorKind = "UNKNOWN_FAILURE"
)

var (
	// ErrEmptyPrompt はプロンプトが空のまま送信されたことを示します。
	ErrEmptyPrompt = errors.New("prompt must not be empty")
	// ErrCredentialMissing は API キーが選択されていないことを示します。
	ErrCredentialMissing = errors.New("no API key selected")
)

// WorkflowError は分類済みの失敗です。Message はそのまま利用者に表示できる文言です。
type WorkflowError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *WorkflowError) Error() string {
	if e.Cause != nil && e.Cause.Error() != e.Message {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *WorkflowError) Unwrap() error {
	return e.Cause
}

// State は失敗を終端状態に変換します。
func (e *WorkflowError) State() Failed {
	return Failed{Kind: e.Kind, Message: e.Message}
}

// KindOf は err が WorkflowError ならその分類を、そうでなければ ErrorKindUnknown を返します。
func KindOf(err error) ErrorKind {
	var wfErr *WorkflowError
	if errors.As(err, &wfErr) {
		return wfErr.Kind
	}
	return ErrorKindUnknown
}
