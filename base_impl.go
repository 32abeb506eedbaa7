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
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"
)

type baseImpl struct {
	appKeyId, appKey string
	options

	mu      sync.RWMutex
	session *Session
}

// 鉴权接口响应。会话字段可能平铺在顶层，也可能嵌套在 apiInfo.storageApi 下，嵌套形式优先。
type authorizeStorageApi struct {
	ApiUrl                  string `json:"apiUrl"`
	DownloadUrl             string `json:"downloadUrl"`
	RecommendedPartSize     int64  `json:"recommendedPartSize"`
	AbsoluteMinimumPartSize int64  `json:"absoluteMinimumPartSize"`
	Allowed                 struct {
		Capabilities []string `json:"capabilities"`
	} `json:"allowed"`
}

type authorizeRsp struct {
	authorizeStorageApi

	AccountId          string `json:"accountId"`
	AuthorizationToken string `json:"authorizationToken"`
	ApiInfo            *struct {
		StorageApi *authorizeStorageApi `json:"storageApi"`
	} `json:"apiInfo"`
}

// Authorize 使用应用密钥进行鉴权，获取会话信息。
func (c *baseImpl) Authorize(ctx context.Context) error {
	if err := checkNotEmpty("appKeyId", c.appKeyId); err != nil {
		return err
	}
	if err := checkNotEmpty("appKey", c.appKey); err != nil {
		return err
	}

	var session *Session
	err := doRetry(ctx, c.newRetryPolicy(), func(ctx context.Context) error {
		s, err := c.doAuthorize(ctx)
		if err != nil {
			return err
		}
		session = s
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrAuth) {
			c.Clear()
		}
		return err
	}

	c.mu.Lock()
	c.session = session
	c.mu.Unlock()
	return nil
}

// Refresh 清除会话信息后重新鉴权。
func (c *baseImpl) Refresh(ctx context.Context) error {
	if len(c.appKeyId) <= 0 || len(c.appKey) <= 0 {
		return newError(ErrAuth, 0, "", "no credentials cached")
	}
	c.Clear()
	return c.Authorize(ctx)
}

// Clear 清除会话信息。
func (c *baseImpl) Clear() {
	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()
}

// IsAuthorized 会话信息是否完整可用。
func (c *baseImpl) IsAuthorized() bool {
	return sessionComplete(c.Session())
}

// Session 获取会话信息快照。
func (c *baseImpl) Session() *Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return nil
	}
	s := *c.session
	s.Capabilities = append([]string(nil), c.session.Capabilities...)
	return &s
}

// SaveSession 注入外部获取的会话信息。
func (c *baseImpl) SaveSession(s *Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s == nil {
		c.session = nil
		return
	}
	cp := *s
	cp.Capabilities = append([]string(nil), s.Capabilities...)
	c.session = &cp
}

// 发送鉴权请求并解析出会话信息。
func (c *baseImpl) doAuthorize(ctx context.Context) (*Session, error) {
	header := http.Header{}
	credentials := base64.StdEncoding.EncodeToString([]byte(c.appKeyId + ":" + c.appKey))
	header.Set("Authorization", "Basic "+credentials)

	req, err := c.genReq(http.MethodGet, AuthorizeUrl, header, nil)
	if err != nil {
		return nil, err
	}
	rsp, cancel, err := c.sendHttp(ctx, req, c.getTimeout())
	if err != nil {
		var e *Error
		if errors.As(err, &e) && (e.Status == 401 || e.Code == codeBadAuthToken) {
			return nil, newError(ErrAuth, e.Status, e.Code, e.Message)
		}
		return nil, err
	}
	defer cancel()

	body, err := io.ReadAll(rsp.Body)
	closeRsp(rsp)
	if err != nil {
		return nil, newError(ErrNetwork, 0, "", err.Error())
	}

	var data authorizeRsp
	if err = json.Unmarshal(body, &data); err != nil {
		return nil, newError(ErrAuth, 0, "", fmt.Sprintf("unexpected authorize response: %v", err))
	}

	// 嵌套形式优先。
	storage := &data.authorizeStorageApi
	if data.ApiInfo != nil && data.ApiInfo.StorageApi != nil {
		storage = data.ApiInfo.StorageApi
	}
	session := &Session{
		AuthorizationToken:      data.AuthorizationToken,
		ApiUrl:                  storage.ApiUrl,
		DownloadUrl:             storage.DownloadUrl,
		AccountId:               data.AccountId,
		RecommendedPartSize:     storage.RecommendedPartSize,
		AbsoluteMinimumPartSize: storage.AbsoluteMinimumPartSize,
		Capabilities:            storage.Allowed.Capabilities,
	}
	for field, value := range map[string]string{
		"authorizationToken": session.AuthorizationToken,
		"apiUrl":             session.ApiUrl,
		"downloadUrl":        session.DownloadUrl,
		"accountId":          session.AccountId,
	} {
		if len(value) <= 0 {
			return nil, newError(ErrAuth, 0, "", fmt.Sprintf("authorize response is missing %s", field))
		}
	}

	return session, nil
}

// 判断会话信息是否完整。
func sessionComplete(s *Session) bool {
	return s != nil && len(s.AuthorizationToken) > 0 && len(s.ApiUrl) > 0 && len(s.DownloadUrl) > 0
}

// 获取会话快照，没有可用会话时先鉴权。
func (c *baseImpl) requireSession(ctx context.Context) (*Session, error) {
	if s := c.Session(); s != nil {
		if !sessionComplete(s) {
			return nil, newError(ErrAuth, 0, "", "session is incomplete")
		}
		return s, nil
	}
	if len(c.appKeyId) <= 0 || len(c.appKey) <= 0 {
		return nil, newError(ErrAuth, 0, "", "not authorized and no credentials cached")
	}
	if err := c.Authorize(ctx); err != nil {
		return nil, err
	}
	return c.Session(), nil
}

// 凭证失效时刷新会话并重放一次 fn。后续仍失效则原样返回错误。
func (c *baseImpl) withAuthRecovery(ctx context.Context, fn func(ctx context.Context) error) error {
	err := fn(ctx)
	if err == nil || !isAuthExpired(err) {
		return err
	}
	if len(c.appKeyId) <= 0 || len(c.appKey) <= 0 {
		return err
	}
	if e := c.Refresh(ctx); e != nil {
		return e
	}
	return fn(ctx)
}

// callApi 调用一个 JSON 接口：鉴权、构造请求、重试发送、解析响应体。
// 凭证失效时自动刷新会话并重放一次。
func (c *baseImpl) callApi(ctx context.Context, op string, reqData, rspData any) error {
	return c.withAuthRecovery(ctx, func(ctx context.Context) error {
		return c.callApiOnce(ctx, op, reqData, rspData)
	})
}

func (c *baseImpl) callApiOnce(ctx context.Context, op string, reqData, rspData any) error {
	s, err := c.requireSession(ctx)
	if err != nil {
		return err
	}

	var reqBody []byte
	if reqData != nil {
		if reqBody, err = json.Marshal(reqData); err != nil {
			return newValidationError("marshal %s request: %v", op, err)
		}
	}

	return doRetry(ctx, c.newRetryPolicy(), func(ctx context.Context) error {
		header := http.Header{}
		header.Set("Authorization", s.AuthorizationToken)
		header.Set("Content-Type", "application/json")
		req, err := c.genReq(http.MethodPost, apiEndpoint(s, op), header, reqBody)
		if err != nil {
			return err
		}

		rsp, cancel, err := c.sendHttp(ctx, req, c.getTimeout())
		if err != nil {
			return err
		}
		defer cancel()

		body, err := io.ReadAll(rsp.Body)
		closeRsp(rsp)
		if err != nil {
			return newError(ErrNetwork, 0, "", err.Error())
		}
		if rspData != nil {
			if err = json.Unmarshal(body, rspData); err != nil {
				return newError(ErrHttp, rsp.StatusCode, "", fmt.Sprintf("unmarshal %s response: %v", op, err))
			}
		}
		return nil
	})
}

// sendHttp 发送 HTTP 请求，并对失败分类。
//
// timeout 大于 0 时为本次调用设置截止时间。返回的 cancel 在响应体消费完后调用。
func (c *baseImpl) sendHttp(ctx context.Context, req *http.Request, timeout time.Duration) (
	*http.Response, context.CancelFunc, error) {

	defer rollbackRequest(req)

	callCtx, cancel := ctx, context.CancelFunc(func() {})
	if timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	req = req.WithContext(callCtx)

	client := c.client
	if client == nil {
		client = http.DefaultClient
	}
	rsp, err := client.Do(req)
	if err != nil {
		cancel()
		err = classifyTransportError(ctx, callCtx, timeout, err)
		if c.debug {
			printError(fmt.Errorf("%s %s failed: %v", req.Method, req.URL, err))
		}
		return nil, nil, err
	}
	if rsp == nil {
		cancel()
		return nil, nil, newError(ErrNetwork, 0, "", "http response object is nil")
	}

	// 非成功的响应码就返回错误。
	if !(rsp.StatusCode >= 200 && rsp.StatusCode < 300) {
		err = classifyHttpError(rsp, c.debug)
		cancel()
		if c.debug {
			printError(fmt.Errorf("%s %s failed: %v", req.Method, req.URL, err))
		}
		return nil, nil, err
	}

	return rsp, cancel, nil
}

// 对请求发送失败分类：调用方取消、本次调用超时、网络错误。
func classifyTransportError(parent, callCtx context.Context, timeout time.Duration, err error) error {
	if parent.Err() != nil {
		return newError(ErrCancelled, 0, "", err.Error())
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return newError(ErrTimeout, 0, "", fmt.Sprintf("request timed out after %v", timeout))
	}
	return newError(ErrNetwork, 0, "", err.Error())
}

// 对非 2xx 响应分类。读取并关闭响应体。响应体不一定是 JSON，解码失败时退回使用原始文本。
func classifyHttpError(rsp *http.Response, debug bool) error {
	body := readAndClose(rsp)
	var em struct {
		Status  int    `json:"status"`
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &em); err != nil && debug {
			printError(err)
		}
	}
	if em.Status == 0 {
		em.Status = rsp.StatusCode
	}
	if len(em.Message) <= 0 {
		em.Message = string(body)
	}

	kind := ErrHttp
	switch {
	case em.Status == 401:
		kind = ErrAuth
	case em.Code == codeNoSuchFile || em.Code == codeFileNotPresent || em.Status == 404:
		kind = ErrNotExists
	case em.Code == codeInvalidBucketId:
		kind = ErrInvalidBucketId
	case em.Code == codeNotAllowed || em.Status == 403:
		kind = ErrNotAllowed
	}
	e := newError(kind, em.Status, em.Code, em.Message)

	if ra := rsp.Header.Get("Retry-After"); len(ra) > 0 {
		if secs, err := strconv.ParseInt(ra, 10, 64); err == nil && secs > 0 {
			e.retryAfter = time.Duration(secs) * time.Second
		}
	}
	return e
}

// 生成 HTTP 请求体。
func (c *baseImpl) genReq(method, rawUrl string, header http.Header, content []byte) (*http.Request, error) {
	u, err := url.Parse(rawUrl)
	if err != nil {
		return nil, newValidationError("url %q is invalid: %v", rawUrl, err)
	}
	if header == nil {
		header = http.Header{}
	}
	for k, vs := range c.headers { // 附加全局请求头，不覆盖已有值。
		if len(header.Values(k)) > 0 {
			continue
		}
		for _, v := range vs {
			header.Add(k, v)
		}
	}

	req := getRequest()
	req.Method = method
	req.URL = u
	req.Header = header
	req.Host = u.Host
	if len(content) > 0 {
		header.Set("Content-Length", strconv.Itoa(len(content)))
		req.Body = io.NopCloser(bytes.NewReader(content))
		req.ContentLength = int64(len(content))
	} else {
		req.Body = http.NoBody
		req.ContentLength = 0
	}

	return req, nil
}

// 生成 HTTP 请求体。请求体数据来自读取流。
func (c *baseImpl) genReqForReader(method, rawUrl string, header http.Header, contentLength int64,
	content io.Reader) (*http.Request, error) {

	u, err := url.Parse(rawUrl)
	if err != nil {
		return nil, newValidationError("url %q is invalid: %v", rawUrl, err)
	}
	if header == nil {
		header = http.Header{}
	}
	for k, vs := range c.headers {
		if len(header.Values(k)) > 0 {
			continue
		}
		for _, v := range vs {
			header.Add(k, v)
		}
	}

	req := getRequest()
	req.Method = method
	req.URL = u
	req.Header = header
	req.Host = u.Host
	if contentLength > 0 {
		header.Set("Content-Length", strconv.FormatInt(contentLength, 10))
	}
	req.Body = io.NopCloser(content)
	req.ContentLength = contentLength

	return req, nil
}

// 计算普通操作的绝对 URL。
func apiEndpoint(s *Session, op string) string {
	return s.ApiUrl + apiPathPrefix + op
}

// 计算按名称下载的绝对 URL。文件名按路径段编码。
func downloadByNameUrl(s *Session, bucketName, fileName string) string {
	return fmt.Sprintf("%s/file/%s/%s", s.DownloadUrl, bucketName, urlEncode(fileName))
}

// 计算按 ID 下载的绝对 URL。
func downloadByIdUrl(s *Session, fileId string) string {
	return fmt.Sprintf("%s%s%s?fileId=%s", s.ApiUrl, apiPathPrefix, opDownloadFileById, url.QueryEscape(fileId))
}
