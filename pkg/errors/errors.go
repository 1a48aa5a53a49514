// Package errors 提供统一的错误处理框架
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Code 错误码
type Code string

const (
	// 通用错误码
	CodeUnknown      Code = "UNKNOWN"
	CodeInternal     Code = "INTERNAL_ERROR"
	CodeInvalidInput Code = "INVALID_INPUT"
	CodeNotFound     Code = "NOT_FOUND"
	CodeRateLimited  Code = "RATE_LIMITED"

	// 数据接入相关
	CodeSchemaInvalid     Code = "SCHEMA_INVALID"     // 规范化后仍缺少必需列
	CodeSourceUnavailable Code = "SOURCE_UNAVAILABLE" // 数据源不可读或为空
	CodeDateParseFailed   Code = "DATE_PARSE_FAILED"  // 日期列解析失败
	CodeEmptyResult       Code = "EMPTY_RESULT"       // 过滤/对账结果为空（警告级）

	// 报表相关
	CodeInvalidDateRange Code = "INVALID_DATE_RANGE"
	CodeReportFailed     Code = "REPORT_FAILED"
)

// AppError 应用错误
type AppError struct {
	Code       Code                   `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	HTTPStatus int                    `json:"-"`
	Cause      error                  `json:"-"`
	Fields     map[string]interface{} `json:"fields,omitempty"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 返回底层错误
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails 添加详细信息
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// WithCause 添加原因
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithField 添加字段
func (e *AppError) WithField(key string, value interface{}) *AppError {
	if e.Fields == nil {
		e.Fields = make(map[string]interface{})
	}
	e.Fields[key] = value
	return e
}

// New 创建新错误
func New(code Code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

// Wrap 包装错误
func Wrap(err error, code Code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

// codeToHTTPStatus 错误码转HTTP状态码
func codeToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidInput, CodeInvalidDateRange, CodeDateParseFailed:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeSchemaInvalid:
		return http.StatusUnprocessableEntity
	case CodeSourceUnavailable:
		return http.StatusBadGateway
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeEmptyResult:
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}

// Is 检查错误是否为特定类型
func Is(err error, code Code) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// GetCode 获取错误码
func GetCode(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// GetHTTPStatus 获取HTTP状态码
func GetHTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// 预定义错误
var (
	ErrNotFound     = New(CodeNotFound, "资源不存在")
	ErrInvalidInput = New(CodeInvalidInput, "输入参数无效")
	ErrInternal     = New(CodeInternal, "内部错误")
	ErrEmptyRoster  = New(CodeSourceUnavailable, "花名册为空，无法对账")
)

// SchemaInvalid 创建缺列错误，记录文件名和缺失的规范列名
func SchemaInvalid(file string, missing ...string) *AppError {
	err := New(CodeSchemaInvalid,
		fmt.Sprintf("文件 '%s' 缺少必需列: %s", file, strings.Join(missing, ", ")))
	err.Fields = map[string]interface{}{
		"file":            file,
		"missing_columns": missing,
	}
	return err
}

// SourceUnavailable 创建数据源不可用错误
func SourceUnavailable(source, reason string) *AppError {
	err := New(CodeSourceUnavailable, fmt.Sprintf("数据源 '%s' 不可用: %s", source, reason))
	return err.WithField("source", source)
}

// DateParseFailed 创建日期解析错误
func DateParseFailed(column, value string) *AppError {
	return New(CodeDateParseFailed,
		fmt.Sprintf("日期列 '%s' 的值 '%s' 无法解析", column, value))
}

// InvalidDateRange 创建日期范围无效错误
func InvalidDateRange(start, end string) *AppError {
	return New(CodeInvalidDateRange, fmt.Sprintf("日期范围无效: %s ~ %s", start, end))
}

// EmptyResult 创建空结果警告，调用方应将其视为有效的终态而非失败
func EmptyResult(stage string) *AppError {
	return New(CodeEmptyResult, fmt.Sprintf("步骤 '%s' 产生了空结果", stage))
}
