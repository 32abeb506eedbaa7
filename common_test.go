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

package b2_test

import (
	"context"
	crand "crypto/rand"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"
	"sync/atomic"
	"time"

	gu "gitee.com/ivfzhou/goroutine-util"

	b2 "gitee.com/ivfzhou/backblaze-b2-object-api"
)

const (
	appKeyId    = "000011112222333344445555"
	appKey      = "K000AbCdEfGhIjKlMnOpQrStUvWxYz0"
	token       = "4_00201f00000000000000000_019f0a2b_f10000_acct_0000000000000="
	apiUrl      = "https://api004.backblazeb2.com"
	downloadUrl = "https://f004.backblazeb2.com"
	accountId   = "a1b2c3d4e5f6"
)

var CloseCount int32

type mockTransport struct {
	fn func(*http.Request) (*http.Response, error)
}

type ctxCancelWithError struct {
	context.Context
	err gu.AtomicError
}

type writerAt struct {
	f func([]byte, int64) (int, error)
}

type readCloser struct {
	closeErr    error
	readErr     error
	closeFlag   int32
	data        []byte
	readCount   int
	total       int
	interceptor func()
}

func NewReader(data []byte, interceptor func(), closeErr, readErr error) io.ReadCloser {
	atomic.AddInt32(&CloseCount, 1)
	return &readCloser{
		closeErr:    closeErr,
		readErr:     readErr,
		data:        data,
		total:       len(data),
		interceptor: interceptor,
	}
}

func NewWriterAt(f func([]byte, int64) (int, error)) io.WriterAt {
	return &writerAt{f: f}
}

func NewCtxCancelWithError() (context.Context, context.CancelCauseFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	c := &ctxCancelWithError{Context: ctx}
	return c, func(cause error) {
		c.err.Set(cause)
		cancel()
	}
}

func MakeBytesWithSize(n int) []byte {
	data := make([]byte, n)
	n, err := crand.Read(data)
	if err != nil || n != len(data) {
		panic("rand.Read fail")
	}
	return data
}

func Sha1Sum(data []byte) string {
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:])
}

func MockHttpClient(fn func(*http.Request) (*http.Response, error)) *http.Client {
	return &http.Client{
		Transport: &mockTransport{
			fn: fn,
		},
	}
}

// Op 取请求路径末段，即接口名。
func Op(req *http.Request) string {
	return path.Base(req.URL.Path)
}

// ReadBody 读出请求体字节。
func ReadBody(req *http.Request) []byte {
	if req.Body == nil || req.Body == http.NoBody {
		return nil
	}
	bs, err := io.ReadAll(req.Body)
	if err != nil {
		panic(err)
	}
	return bs
}

// JsonRsp 构造 JSON 响应。
func JsonRsp(v any) *http.Response {
	bs, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return &http.Response{
		StatusCode:    http.StatusOK,
		Header:        http.Header{},
		ContentLength: int64(len(bs)),
		Body:          NewReader(bs, nil, nil, nil),
	}
}

// ErrRsp 构造服务端错误响应。
func ErrRsp(status int, code, message string) *http.Response {
	bs, err := json.Marshal(map[string]any{
		"status":  status,
		"code":    code,
		"message": message,
	})
	if err != nil {
		panic(err)
	}
	return &http.Response{
		StatusCode:    status,
		Header:        http.Header{},
		ContentLength: int64(len(bs)),
		Body:          NewReader(bs, nil, nil, nil),
	}
}

// BytesRsp 构造裸字节响应。
func BytesRsp(data []byte) *http.Response {
	return &http.Response{
		StatusCode:    http.StatusOK,
		Header:        http.Header{},
		ContentLength: int64(len(data)),
		Body:          NewReader(data, nil, nil, nil),
	}
}

// TestSession 构造一个完整会话。分片界限调小以便测试分片传输。
func NewTestSession() *b2.Session {
	return &b2.Session{
		AuthorizationToken:      token,
		ApiUrl:                  apiUrl,
		DownloadUrl:             downloadUrl,
		AccountId:               accountId,
		RecommendedPartSize:     8,
		AbsoluteMinimumPartSize: 4,
		Capabilities:            []string{"listBuckets", "readFiles", "writeFiles"},
	}
}

// AuthorizeRsp 构造鉴权接口的响应。嵌套结构。
func AuthorizeRsp() *http.Response {
	return JsonRsp(map[string]any{
		"accountId": accountId,
		"apiInfo": map[string]any{
			"storageApi": map[string]any{
				"apiUrl":                  apiUrl,
				"downloadUrl":             downloadUrl,
				"recommendedPartSize":     8,
				"absoluteMinimumPartSize": 4,
				"allowed": map[string]any{
					"capabilities": []string{"listBuckets", "readFiles", "writeFiles"},
				},
			},
		},
		"authorizationToken": token,
	})
}

// NewTestClient 构造注入了会话的客户端。无密钥，会话过期后不自动刷新。
func NewTestClient(fn func(*http.Request) (*http.Response, error)) b2.Api {
	c := b2.NewClient("", "", b2.WithHttpClient(MockHttpClient(fn)))
	c.SaveSession(NewTestSession())
	return c
}

func (m *mockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.fn(req)
}

func (w *writerAt) WriteAt(p []byte, of int64) (int, error) {
	return w.f(p, of)
}

func (rc *readCloser) Read(p []byte) (int, error) {
	if rc.interceptor != nil {
		rc.interceptor()
	}
	if len(rc.data) <= 0 {
		if rc.readErr != nil {
			rc.data = nil
			return 0, rc.readErr
		}
		return 0, io.EOF
	}
	if rc.readErr != nil {
		if rc.readCount >= rc.total/2 {
			rc.data = nil
			return 0, rc.readErr
		}
	}
	n := copy(p, rc.data)
	rc.data = rc.data[n:]
	rc.readCount += n
	if len(rc.data) <= 0 {
		return n, io.EOF
	}
	return n, nil
}

func (rc *readCloser) Close() error {
	if atomic.CompareAndSwapInt32(&rc.closeFlag, 0, 1) {
		atomic.AddInt32(&CloseCount, -1)
		return rc.closeErr
	}
	return fmt.Errorf("reader already closed")
}

func (c *ctxCancelWithError) Deadline() (deadline time.Time, ok bool) {
	return c.Context.Deadline()
}

func (c *ctxCancelWithError) Done() <-chan struct{} {
	return c.Context.Done()
}

func (c *ctxCancelWithError) Err() error {
	return c.err.Get()
}

func (c *ctxCancelWithError) Value(key any) any {
	return c.Context.Value(key)
}
