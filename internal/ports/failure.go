package ports

import (
	"errors"
	"fmt"
)

// FailureKind — классификация отказов конвейера: движки, мост, персист.
type FailureKind string

const (
	InputRejected        FailureKind = "input_rejected"
	EngineUnavailable    FailureKind = "engine_unavailable"
	ModelNotFound        FailureKind = "model_not_found"
	EngineExecutionError FailureKind = "engine_execution_error"
	TranscodeFailure     FailureKind = "transcode_failure"
	PersistFailure       FailureKind = "persist_failure"
	NotFound             FailureKind = "not_found"
	PermissionDenied     FailureKind = "permission_denied"
)

// Failure — типизированная ошибка вместо "голых" errors через границы компонентов.
type Failure struct {
	Kind FailureKind
	Msg  string
	Err  error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Msg, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Msg)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

func Fail(kind FailureKind, msg string) *Failure {
	return &Failure{Kind: kind, Msg: msg}
}

func Failf(kind FailureKind, format string, args ...any) *Failure {
	return &Failure{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func WrapFailure(kind FailureKind, msg string, err error) *Failure {
	return &Failure{Kind: kind, Msg: msg, Err: err}
}

// KindOf — достаёт FailureKind из цепочки ошибок.
func KindOf(err error) (FailureKind, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind, true
	}
	return "", false
}

// IsKind — true, если err несёт указанный вид отказа.
func IsKind(err error, kind FailureKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
