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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
)

type uploadImpl struct {
	*baseImpl
	*multiUploadImpl
}

// Upload 上传文件。文件超过分片大小时自动使用分片上传。
func (c *uploadImpl) Upload(ctx context.Context, bucketId, fileName, contentType string,
	info map[string]string, content []byte) (*FileInfo, error) {

	if err := checkNotEmpty("bucketId", bucketId); err != nil {
		return nil, err
	}
	if err := checkFileName(fileName); err != nil {
		return nil, err
	}
	if err := checkFileInfo(info); err != nil {
		return nil, err
	}
	s, err := c.requireSession(ctx)
	if err != nil {
		return nil, err
	}

	size := int64(len(content))
	if useMultipart(s, size) {
		return c.multiUpload(ctx, bucketId, fileName, contentType, info, size, bytes.NewReader(content))
	}
	return c.simpleUpload(ctx, bucketId, fileName, contentType, info, content)
}

// UploadFromReader 上传文件。数据长度未知，从读取流读到结尾为止。
func (c *uploadImpl) UploadFromReader(ctx context.Context, bucketId, fileName, contentType string,
	info map[string]string, r io.Reader) (*FileInfo, error) {

	if err := checkNotEmpty("bucketId", bucketId); err != nil {
		return nil, err
	}
	if err := checkFileName(fileName); err != nil {
		return nil, err
	}
	if err := checkFileInfo(info); err != nil {
		return nil, err
	}
	if r == nil {
		return nil, newValidationError("reader is nil")
	}
	s, err := c.requireSession(ctx)
	if err != nil {
		return nil, err
	}

	// 先读一个分片。一个分片就装下的数据用普通上传。
	partSize := getPartSize(s)
	buf := make([]byte, partSize+1)
	n, err := io.ReadFull(r, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, err
	}
	if int64(n) <= partSize {
		return c.simpleUpload(ctx, bucketId, fileName, contentType, info, buf[:n])
	}
	return c.multiUpload(ctx, bucketId, fileName, contentType, info, -1,
		io.MultiReader(bytes.NewReader(buf[:n]), r))
}

// UploadFromReaderWithSize 上传文件。数据长度已知。
func (c *uploadImpl) UploadFromReaderWithSize(ctx context.Context, bucketId, fileName, contentType string,
	info map[string]string, contentLength int64, r io.Reader) (*FileInfo, error) {

	if err := checkNotEmpty("bucketId", bucketId); err != nil {
		return nil, err
	}
	if err := checkFileName(fileName); err != nil {
		return nil, err
	}
	if err := checkFileInfo(info); err != nil {
		return nil, err
	}
	if r == nil {
		return nil, newValidationError("reader is nil")
	}
	if contentLength < 0 {
		return nil, newValidationError("contentLength %d is invalid", contentLength)
	}
	s, err := c.requireSession(ctx)
	if err != nil {
		return nil, err
	}

	if useMultipart(s, contentLength) {
		return c.multiUpload(ctx, bucketId, fileName, contentType, info, contentLength,
			io.LimitReader(r, contentLength))
	}
	content := make([]byte, contentLength)
	if _, err = io.ReadFull(r, content); err != nil {
		return nil, err
	}
	return c.simpleUpload(ctx, bucketId, fileName, contentType, info, content)
}

// UploadFromDisk 上传本地文件。
func (c *uploadImpl) UploadFromDisk(ctx context.Context, bucketId, fileName, contentType string,
	info map[string]string, filePath string) (*FileInfo, error) {

	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer closeIO(f)
	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	return c.UploadFromReaderWithSize(ctx, bucketId, fileName, contentType, info, st.Size(), f)
}

// 普通上传。每次尝试都获取新的上传位置，数据驻留内存以便重发。
func (c *uploadImpl) simpleUpload(ctx context.Context, bucketId, fileName, contentType string,
	info map[string]string, content []byte) (*FileInfo, error) {

	sum := sha1Hex(content)
	fileInfo := &FileInfo{}
	err := doRetry(ctx, c.newUploadRetryPolicy(), func(ctx context.Context) error {
		slot, err := c.newUploadSlot(ctx, bucketId)
		if err != nil {
			return err
		}

		header := uploadHeader(slot.AuthorizationToken, fileName, contentType, sum, info)
		var req *http.Request
		if len(content) > 0 {
			var body io.Reader = bytes.NewReader(content)
			if c.uploadProgress != nil {
				body = newProgressReader(body, int64(len(content)), c.debug, c.uploadProgress)
			}
			req, err = c.genReqForReader(http.MethodPost, slot.UploadUrl, header, int64(len(content)), body)
		} else {
			req, err = c.genReq(http.MethodPost, slot.UploadUrl, header, nil)
		}
		if err != nil {
			return err
		}

		rsp, cancel, err := c.sendHttp(ctx, req, c.getUploadTimeout())
		if err != nil {
			return err
		}
		defer cancel()

		body, err := io.ReadAll(rsp.Body)
		closeRsp(rsp)
		if err != nil {
			return newError(ErrNetwork, 0, "", err.Error())
		}
		if err = json.Unmarshal(body, fileInfo); err != nil {
			return newError(ErrHttp, rsp.StatusCode, "", fmt.Sprintf("unmarshal upload response: %v", err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return fileInfo, nil
}

// 获取普通上传位置与凭证。
func (c *uploadImpl) newUploadSlot(ctx context.Context, bucketId string) (*UploadSlot, error) {
	reqData := struct {
		BucketId string `json:"bucketId"`
	}{bucketId}
	slot := &UploadSlot{}
	if err := c.callApi(ctx, opGetUploadUrl, &reqData, slot); err != nil {
		return nil, err
	}
	return slot, nil
}

// 生成上传请求头。附加信息的值按段编码。
func uploadHeader(token, fileName, contentType, sum string, info map[string]string) http.Header {
	if len(contentType) <= 0 {
		contentType = ContentTypeAuto
	}
	header := http.Header{}
	header.Set("Authorization", token)
	header.Set("X-Bz-File-Name", urlEncode(fileName))
	header.Set("Content-Type", contentType)
	header.Set("X-Bz-Content-Sha1", sum)
	for k, v := range info {
		header.Set("X-Bz-Info-"+k, urlEncodeValue(v))
	}
	return header
}

// 上传请求的重试策略。凭证失效也重试，每次尝试换新的上传位置。
func (c *baseImpl) newUploadRetryPolicy() *retryPolicy {
	p := c.newRetryPolicy()
	p.predicate = func(err error, attempt int) bool {
		return retryableError(err) || isAuthExpired(err)
	}
	return p
}
