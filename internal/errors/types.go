package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode 错误码类型
type ErrorCode string

// 预定义错误码
const (
	// 通用错误
	ErrCodeInternalServer ErrorCode = "INTERNAL_SERVER_ERROR"
	ErrCodeBadRequest     ErrorCode = "BAD_REQUEST"

	// 文档处理错误
	ErrCodeUnsupportedFormat  ErrorCode = "UNSUPPORTED_FORMAT"
	ErrCodeDecodeError        ErrorCode = "DECODE_ERROR"
	ErrCodeEmptyDocument      ErrorCode = "EMPTY_DOCUMENT"
	ErrCodeInvalidChunkParams ErrorCode = "INVALID_CHUNK_PARAMS"
	ErrCodeFileTooLarge       ErrorCode = "FILE_TOO_LARGE"

	// 外部服务错误
	ErrCodeEmbeddingFailure  ErrorCode = "EMBEDDING_FAILURE"
	ErrCodeIndexFailure      ErrorCode = "INDEX_FAILURE"
	ErrCodeCacheFailure      ErrorCode = "CACHE_FAILURE"
	ErrCodeGenerationFailure ErrorCode = "GENERATION_FAILURE"

	// 会话错误
	ErrCodeMalformedRequest ErrorCode = "MALFORMED_REQUEST"
)

// AppError 应用错误结构体
type AppError struct {
	Code     ErrorCode   `json:"code"`
	Message  string      `json:"message"`
	HTTPCode int         `json:"-"`
	Details  interface{} `json:"details,omitempty"`
	Cause    error       `json:"-"`
}

// Error 实现error接口
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap 返回底层错误
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails 添加错误详情
func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

// WithCause 添加错误原因
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// NewClientError 创建客户端错误（400类）
func NewClientError(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:     code,
		Message:  message,
		HTTPCode: http.StatusBadRequest,
	}
}

// NewSystemError 创建系统错误（500类）
func NewSystemError(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:     code,
		Message:  message,
		HTTPCode: http.StatusInternalServerError,
	}
}

// NewExternalError 创建外部服务错误
func NewExternalError(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:     code,
		Message:  message,
		HTTPCode: http.StatusBadGateway,
		Cause:    cause,
	}
}

// AsAppError 提取AppError，普通error会被包装为系统错误
func AsAppError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewSystemError(ErrCodeInternalServer, "internal server error").WithCause(err)
}

// IsCode 判断错误是否携带指定错误码
func IsCode(err error, code ErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
