package gemini

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/shouni/go-comic-kit/pkg/domain"

	"google.golang.org/genai"
)

// mapError は genai の失敗をドメインのエラー分類に変換します。
func mapError(op, model string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return domain.NewTransportError(domain.ProviderGemini, op, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return domain.NewTransportError(domain.ProviderGemini, op, err)
	}

	code, msg := 0, err.Error()
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code, msg = apiErr.Code, apiErr.Message
	case errors.As(err, &apiErrPtr) && apiErrPtr != nil:
		code, msg = apiErrPtr.Code, apiErrPtr.Message
	}
	return domain.NewAPIError(domain.ProviderGemini, op, code, rewriteMessage(model, msg), err)
}

// rewriteMessage はよくある失敗を利用者に分かりやすい文言に置き換えるのだ。
func rewriteMessage(model, msg string) string {
	switch {
	case strings.Contains(msg, "API_KEY_INVALID") || strings.Contains(msg, "API key not valid"):
		return "Gemini API キーが無効です。設定と API の有効化を確認してください"
	case strings.Contains(msg, "model is not supported") ||
		strings.Contains(msg, "Permission denied") ||
		strings.Contains(msg, "model not found"):
		return fmt.Sprintf("モデル '%s' はこの API キーで利用できないか、名前が誤っている可能性があります: %s", model, msg)
	case strings.Contains(msg, "inline data parts for IMAGE modality are not supported"):
		return fmt.Sprintf("モデル '%s' はインライン画像入力に対応していません: %s", model, msg)
	}
	return msg
}
