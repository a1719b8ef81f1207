package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shouni/gemini-video-kit/pkg/domain"
)

// Classify は発生段階 (kind) とエラーから利用者向けの WorkflowError を組み立てます。
// "Requested entity was not found." を含むエラーはキー不正として扱い、それ以外は元のメッセージをそのまま使います。
func Classify(kind domain.ErrorKind, err error) *domain.WorkflowError {
	if err == nil {
		return &domain.WorkflowError{Kind: domain.ErrorKindUnknown, Message: "unknown error"}
	}

	var wfErr *domain.WorkflowError
	if errors.As(err, &wfErr) {
		return wfErr
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &domain.WorkflowError{
			Kind:    domain.ErrorKindCancelled,
			Message: fmt.Sprintf("generation was cancelled: %v", err),
			Cause:   err,
		}
	}

	if strings.Contains(strings.ToLower(err.Error()), entityNotFoundPattern) {
		return &domain.WorkflowError{
			Kind:    domain.ErrorKindCredentialInvalid,
			Message: credentialInvalidMessage,
			Cause:   err,
		}
	}

	if kind == "" {
		kind = domain.ErrorKindUnknown
	}
	return &domain.WorkflowError{Kind: kind, Message: err.Error(), Cause: err}
}
