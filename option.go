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
	"net/http"
	"time"
)

type options struct {
	client           *http.Client
	timeout          time.Duration
	uploadTimeout    time.Duration
	downloadTimeout  time.Duration
	retries          int
	retriesSet       bool
	retryDelay       time.Duration
	retryMultiplier  float64
	maxRetryDelay    time.Duration
	onRetry          func(err error, attempt int, delay time.Duration)
	headers          http.Header
	uploadProgress   func(Progress)
	downloadProgress func(Progress)
	nonUseDisk       bool
	debug            bool
}

type option func(*options)

// WithHttpClient 使用自定义 HTTP 客户端实现。默认使用 http.DefaultClient。
func WithHttpClient(client *http.Client) option {
	return func(o *options) {
		o.client = client
	}
}

// WithTimeout 设置普通接口调用的超时时间。默认 DefaultTimeout。
func WithTimeout(timeout time.Duration) option {
	return func(o *options) {
		o.timeout = timeout
	}
}

// WithUploadTimeout 设置上传接口调用的超时时间。默认 DefaultUploadTimeout。
func WithUploadTimeout(timeout time.Duration) option {
	return func(o *options) {
		o.uploadTimeout = timeout
	}
}

// WithDownloadTimeout 设置下载接口调用的超时时间。默认与 WithTimeout 相同。
func WithDownloadTimeout(timeout time.Duration) option {
	return func(o *options) {
		o.downloadTimeout = timeout
	}
}

// WithRetries 设置请求失败后的最大重试次数。默认 DefaultRetries。
func WithRetries(retries int) option {
	return func(o *options) {
		if retries >= 0 {
			o.retries = retries
			o.retriesSet = true
		}
	}
}

// WithRetryDelay 设置重试的基础延迟、倍数和最大延迟。
// 第 i 次重试前延迟 min(maxDelay, delay*multiplier^i)，并乘以 [0.75, 1.25] 的随机抖动。
func WithRetryDelay(delay time.Duration, multiplier float64, maxDelay time.Duration) option {
	return func(o *options) {
		o.retryDelay = delay
		o.retryMultiplier = multiplier
		o.maxRetryDelay = maxDelay
	}
}

// WithOnRetry 设置每次重试前的回调。回调抛出的恐慌会被捕获，不影响重试。
func WithOnRetry(fn func(err error, attempt int, delay time.Duration)) option {
	return func(o *options) {
		o.onRetry = fn
	}
}

// WithHeaders 设置附加到每个请求上的请求头。
func WithHeaders(headers http.Header) option {
	return func(o *options) {
		o.headers = headers
	}
}

// WithUploadProgress 设置上传进度回调。回调抛出的恐慌会被捕获，不影响上传。
func WithUploadProgress(fn func(Progress)) option {
	return func(o *options) {
		o.uploadProgress = fn
	}
}

// WithDownloadProgress 设置下载进度回调。回调抛出的恐慌会被捕获，不影响下载。
func WithDownloadProgress(fn func(Progress)) option {
	return func(o *options) {
		o.downloadProgress = fn
	}
}

// WithNonUseDisk 分片下载时临时数据不放置到外存，而是放置在内存。
func WithNonUseDisk() option {
	return func(o *options) {
		o.nonUseDisk = true
	}
}

// WithDebug 打印请求失败的诊断信息到标准错误输出流。
func WithDebug() option {
	return func(o *options) {
		o.debug = true
	}
}

// 获取普通接口超时时间。
func (o *options) getTimeout() time.Duration {
	if o.timeout > 0 {
		return o.timeout
	}
	return DefaultTimeout
}

// 获取上传接口超时时间。
func (o *options) getUploadTimeout() time.Duration {
	if o.uploadTimeout > 0 {
		return o.uploadTimeout
	}
	return DefaultUploadTimeout
}

// 获取下载接口超时时间。
func (o *options) getDownloadTimeout() time.Duration {
	if o.downloadTimeout > 0 {
		return o.downloadTimeout
	}
	return o.getTimeout()
}
