package domain

import (
	"errors"
	"fmt"
)

// エラー分類のセンチネルなのだ。具体的なエラー型は errors.Is でこれらに一致するのだよ。
var (
	ErrCredentialMissing    = errors.New("credential missing")
	ErrProviderTransport    = errors.New("provider transport error")
	ErrProviderAPI          = errors.New("provider api error")
	ErrMalformedModelOutput = errors.New("malformed model output")
	ErrImageDecode          = errors.New("image decode error")
	ErrValidation           = errors.New("validation error")

	// ErrRunInProgress は実行中に再投入された場合のエラーです。
	ErrRunInProgress = errors.New("a generation run is already in progress")
	// ErrRunSuperseded は実行が Abandon などで置き換えられた場合のエラーです。
	ErrRunSuperseded = errors.New("generation run was superseded")
)

// CredentialMissingError は API キーが必要なプロバイダで未設定の場合に返ります。
type CredentialMissingError struct {
	Provider Provider
}

func (e *CredentialMissingError) Error() string {
	return fmt.Sprintf("%s の API キーが設定されていません", e.Provider)
}

func (e *CredentialMissingError) Is(target error) bool {
	return target == ErrCredentialMissing
}

// ProviderError はプロバイダ呼び出しの失敗を表します。
// Kind には ErrProviderTransport / ErrProviderAPI / ErrImageDecode のいずれかが入ります。
type ProviderError struct {
	Kind       error
	Provider   Provider
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status %d: %s", e.Provider, e.Op, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s %s: %s", e.Provider, e.Op, msg)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func (e *ProviderError) Is(target error) bool {
	return e.Kind != nil && target == e.Kind
}

// NewTransportError は通信層の失敗（タイムアウト等）を包みます。
func NewTransportError(p Provider, op string, err error) *ProviderError {
	return &ProviderError{Kind: ErrProviderTransport, Provider: p, Op: op, Err: err}
}

// NewAPIError はプロバイダが明示的に返した失敗を包みます。
func NewAPIError(p Provider, op string, status int, message string, err error) *ProviderError {
	return &ProviderError{Kind: ErrProviderAPI, Provider: p, Op: op, StatusCode: status, Message: message, Err: err}
}

// NewImageDecodeError はレスポンスに画像データが含まれない場合のエラーです。
func NewImageDecodeError(p Provider, op string, message string) *ProviderError {
	return &ProviderError{Kind: ErrImageDecode, Provider: p, Op: op, Message: message}
}

// MalformedOutputError はモデル出力を構造化データとして解釈できなかった場合のエラーです。
// Raw に応答全文を保持し、診断に使えるようにしています。
type MalformedOutputError struct {
	Raw string
	Err error
}

func (e *MalformedOutputError) Error() string {
	return fmt.Sprintf("モデル出力の解析に失敗しました (応答抜粋: %q): %v", TruncateString(e.Raw, 200), e.Err)
}

func (e *MalformedOutputError) Unwrap() error {
	return e.Err
}

func (e *MalformedOutputError) Is(target error) bool {
	return target == ErrMalformedModelOutput
}

// ValidationError は設定値が制約を満たさない場合のエラーです。
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// TruncateString はログやエラーメッセージ用に文字列を切り詰めるのだ。
func TruncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
