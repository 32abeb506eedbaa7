/*
 * Copyright (c) 2025 ivfzhou
 * backblaze-b2-object-api is licensed under Mulan PSL v2.
 * You can use this software according to the terms and conditions of the Mulan PSL v2.
 * You may obtain a copy of Mulan PSL v2 at:
 *          http://license.coscl.org.cn/MulanPSL2
 * THIS SOFTWARE IS PROVIDED ON AN "AS IS" BASIS, WITHOUT WARRANTIES OF ANY KIND,
 * EITHER EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO NON-INFRINGEMENT,
 * MERCHANTABILITY OR FIT FOR A PARTICULAR PURPOSE.
 * See the Mulan PSL v2 for more details.
 */

package b2

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrValidation 入参不合法。不会重试。
	ErrValidation = errors.New("validation error")
	// ErrAuth 鉴权失败或凭证过期。
	ErrAuth = errors.New("authorization error")
	// ErrHttp 服务端返回非 2xx 响应。
	ErrHttp = errors.New("http error")
	// ErrNetwork 网络失败（连接、重置、DNS）。会重试。
	ErrNetwork = errors.New("network error")
	// ErrTimeout 调用超时。会重试。
	ErrTimeout = errors.New("timeout")
	// ErrCancelled 调用方取消。不会重试。
	ErrCancelled = errors.New("cancelled")
	// ErrNotExists 文件不存在。
	ErrNotExists = errors.New("file not found")
	// ErrInvalidBucketId 存储桶 ID 不合法。
	ErrInvalidBucketId = errors.New("invalid bucket id")
	// ErrNotAllowed 密钥权限不足。不会重试。
	ErrNotAllowed = errors.New("not allowed")
)

// 服务端错误码。
const (
	codeBadAuthToken     = "bad_auth_token"
	codeExpiredAuthToken = "expired_auth_token"
	codeRequestTimeout   = "request_timeout"
	codeTooManyRequests  = "too_many_requests"
	codeNotAllowed       = "not_allowed"
	codeInvalidBucketId  = "invalid_bucket_id"
	codeNoSuchFile       = "no_such_file"
	codeFileNotPresent   = "file_not_present"
)

// Error 一次 API 调用失败的信息。
type Error struct {
	kind error

	// Status HTTP 响应码。没有响应时为 0。
	Status int
	// Code 服务端返回的错误码。
	Code string
	// Message 错误描述。
	Message string
	// Retryable 该错误是否可以重试。
	Retryable bool
	// RetryAttempts 实际重试的次数。
	RetryAttempts int
	// RetryExhausted 是否耗尽了重试次数。
	RetryExhausted bool

	// 服务端通过 Retry-After 响应头给出的重试延迟下限。
	retryAfter time.Duration
}

// Error 实现 error 接口。
func (e *Error) Error() string {
	s := fmt.Sprintf("%v: %s", e.kind, e.Message)
	if e.Status > 0 {
		s += fmt.Sprintf(", status is %d", e.Status)
	}
	if len(e.Code) > 0 {
		s += fmt.Sprintf(", code is %s", e.Code)
	}
	return s
}

// Unwrap 获取错误类别哨兵，供 errors.Is 使用。
func (e *Error) Unwrap() error {
	return e.kind
}

// Kind 获取错误类别哨兵。
func (e *Error) Kind() error {
	return e.kind
}

// JSON 获取错误信息的 JSON 串。
func (e *Error) JSON() string {
	m := struct {
		Kind           string `json:"kind"`
		Status         int    `json:"status,omitempty"`
		Code           string `json:"code,omitempty"`
		Message        string `json:"message"`
		Retryable      bool   `json:"retryable"`
		RetryAttempts  int    `json:"retryAttempts"`
		RetryExhausted bool   `json:"retryExhausted"`
	}{kindName(e.kind), e.Status, e.Code, e.Message, e.Retryable, e.RetryAttempts, e.RetryExhausted}
	bs, err := json.Marshal(&m)
	printError(err)
	return string(bs)
}

// 错误类别名称。
func kindName(kind error) string {
	switch kind {
	case ErrValidation:
		return "validation-error"
	case ErrAuth:
		return "auth-error"
	case ErrHttp:
		return "http-error"
	case ErrNetwork:
		return "network-error"
	case ErrTimeout:
		return "timeout"
	case ErrCancelled:
		return "cancelled"
	case ErrNotExists:
		return "not-found"
	case ErrInvalidBucketId:
		return "invalid-bucket-id"
	case ErrNotAllowed:
		return "not-allowed"
	}
	return "unknown"
}

// 创建入参校验错误。
func newValidationError(format string, args ...any) error {
	return &Error{kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

// 创建指定类别的错误。
func newError(kind error, status int, code, message string) *Error {
	e := &Error{kind: kind, Status: status, Code: code, Message: message}
	e.Retryable = retryableError(e)
	return e
}

// 判断错误是否表示鉴权凭证失效。
func isAuthExpired(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Status == 401 || e.Code == codeBadAuthToken || e.Code == codeExpiredAuthToken
}

// 默认重试判定。网络错误、超时、408/429/5xx 以及对应错误码可以重试。
func retryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrCancelled) || errors.Is(err, ErrValidation) || errors.Is(err, ErrNotAllowed) {
		return false
	}
	if errors.Is(err, ErrNetwork) || errors.Is(err, ErrTimeout) {
		return true
	}
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	switch e.Status {
	case 408, 429, 500, 502, 503, 504:
		return true
	}
	switch e.Code {
	case codeRequestTimeout, codeTooManyRequests:
		return true
	}
	return e.Status >= 500
}

// 获取服务端给出的重试延迟下限。
func retryAfterOf(err error) time.Duration {
	var e *Error
	if errors.As(err, &e) {
		return e.retryAfter
	}
	return 0
}

// 在错误上记录重试情况。
func annotateRetry(err error, attempts int, exhausted bool) error {
	var e *Error
	if errors.As(err, &e) {
		e.RetryAttempts = attempts
		e.RetryExhausted = exhausted
	}
	return err
}
