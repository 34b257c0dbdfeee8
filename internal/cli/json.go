package cli

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"strings"

	"github.com/n0ctu/xmrig-monitor/internal/errors"
)

// JSONEnvelope wraps command output in a consistent structure for machine parsing.
// All -o json output should use this envelope.
type JSONEnvelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *JSONError  `json:"error,omitempty"`
}

// JSONError provides structured error information for machine parsing.
type JSONError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Error codes for machine-readable output.
const (
	ErrCodeConfigNotFound  = "CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid   = "CONFIG_INVALID"
	ErrCodeNodeFile        = "NODE_FILE_ERROR"
	ErrCodeNodeNotFound    = "NODE_NOT_FOUND"
	ErrCodeInvalidInput    = "INVALID_INPUT"
	ErrCodeNodeUnreachable = "NODE_UNREACHABLE"
	ErrCodeNodeHTTP        = "NODE_HTTP_ERROR"
	ErrCodeNodePayload     = "NODE_BAD_PAYLOAD"
	ErrCodeUnknown         = "UNKNOWN"
)

// WriteJSONSuccess writes a successful response with data to the writer.
func WriteJSONSuccess(w io.Writer, data interface{}) error {
	return writeJSONEnvelope(w, JSONEnvelope{
		Success: true,
		Data:    data,
	})
}

// WriteJSONFromError converts a Go error to a JSON error response.
func WriteJSONFromError(w io.Writer, err error) error {
	return writeJSONEnvelope(w, JSONEnvelope{
		Success: false,
		Error:   ErrorToJSON(err),
	})
}

func writeJSONEnvelope(w io.Writer, env JSONEnvelope) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(env)
}

// ErrorToJSON converts a Go error to a JSONError with appropriate code mapping.
func ErrorToJSON(err error) *JSONError {
	if err == nil {
		return nil
	}

	var xErr *errors.Error
	if stderrors.As(err, &xErr) {
		return &JSONError{
			Code:       mapErrorCode(xErr.Code, xErr.Message),
			Message:    errors.Summary(xErr),
			Suggestion: xErr.Suggestion,
		}
	}

	return &JSONError{
		Code:    ErrCodeUnknown,
		Message: err.Error(),
	}
}

// mapErrorCode maps internal error codes to machine-readable codes.
func mapErrorCode(internalCode, message string) string {
	switch internalCode {
	case errors.ErrConfig:
		msgLower := strings.ToLower(message)
		if strings.Contains(msgLower, "not found") {
			return ErrCodeConfigNotFound
		}
		return ErrCodeConfigInvalid
	case errors.ErrPersist:
		return ErrCodeNodeFile
	case errors.ErrIndex:
		return ErrCodeNodeNotFound
	case errors.ErrInput:
		return ErrCodeInvalidInput
	case errors.ErrTransport:
		return ErrCodeNodeUnreachable
	case errors.ErrProtocol:
		return ErrCodeNodeHTTP
	case errors.ErrPayload:
		return ErrCodeNodePayload
	}
	return ErrCodeUnknown
}
