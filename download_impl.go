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
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	gu "gitee.com/ivfzhou/goroutine-util"
	iu "gitee.com/ivfzhou/io-util"
)

type downloadImpl struct {
	*baseImpl
}

// DownloadFileByName 按桶名与文件名下载文件。
//
// 注意：调用方负责关闭 rc。
func (c *downloadImpl) DownloadFileByName(ctx context.Context, bucketName, fileName string) (
	rc io.ReadCloser, size int64, err error) {

	if err = checkNotEmpty("bucketName", bucketName); err != nil {
		return nil, 0, err
	}
	if err = checkFileName(fileName); err != nil {
		return nil, 0, err
	}

	urlOf := func(s *Session) string { return downloadByNameUrl(s, bucketName, fileName) }
	return c.downloadToReader(ctx, urlOf)
}

// DownloadFileById 按文件 Id 下载文件。
//
// 注意：调用方负责关闭 rc。
func (c *downloadImpl) DownloadFileById(ctx context.Context, fileId string) (
	rc io.ReadCloser, size int64, err error) {

	if err = checkNotEmpty("fileId", fileId); err != nil {
		return nil, 0, err
	}

	urlOf := func(s *Session) string { return downloadByIdUrl(s, fileId) }
	return c.downloadToReader(ctx, urlOf)
}

// DownloadToWriter 下载文件写入 w。
func (c *downloadImpl) DownloadToWriter(ctx context.Context, bucketName, fileName string, w io.Writer) error {
	if w == nil {
		return newValidationError("writer is nil")
	}
	rc, _, err := c.DownloadFileByName(ctx, bucketName, fileName)
	if err != nil {
		return err
	}
	defer closeIO(rc)
	_, err = io.Copy(w, rc)
	return err
}

// DownloadToWriterAt 下载文件写入 wa。文件较大时分片并发写入。
func (c *downloadImpl) DownloadToWriterAt(ctx context.Context, bucketName, fileName string,
	wa io.WriterAt) error {

	if err := checkNotEmpty("bucketName", bucketName); err != nil {
		return err
	}
	if err := checkFileName(fileName); err != nil {
		return err
	}
	if wa == nil {
		return newValidationError("writer is nil")
	}

	urlOf := func(s *Session) string { return downloadByNameUrl(s, bucketName, fileName) }

	// 获取文件信息。
	s, err := c.requireSession(ctx)
	if err != nil {
		return err
	}
	fileSize, err := c.headSize(ctx, urlOf)
	if err != nil {
		return err
	}

	// 是否使用分片模式下载。
	if useMultipart(s, fileSize) {
		return c.downloadToWriterAt(ctx, urlOf, fileSize, wa)
	}

	rc, _, err := c.openStream(ctx, urlOf, -1, -1)
	if err != nil {
		return err
	}
	defer closeIO(rc)
	_, err = iu.CopyReaderToWriterAt(rc, wa, 0, false)
	return err
}

// DownloadToDisk 下载文件保存到本地。失败时删除残留文件。
func (c *downloadImpl) DownloadToDisk(ctx context.Context, bucketName, fileName, filePath string) (err error) {
	if err = checkNotEmpty("bucketName", bucketName); err != nil {
		return err
	}
	if err = checkFileName(fileName); err != nil {
		return err
	}

	// 开启文件流。
	if err = os.MkdirAll(filepath.Dir(filePath), 0700); err != nil {
		return err
	}
	fileObj, err := os.OpenFile(filePath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0700)
	if err != nil {
		return err
	}
	defer func() {
		closeIO(fileObj)
		if err != nil {
			printError(os.Remove(filePath))
		}
	}()

	urlOf := func(s *Session) string { return downloadByNameUrl(s, bucketName, fileName) }

	// 获取文件信息。
	s, err := c.requireSession(ctx)
	if err != nil {
		return err
	}
	fileSize, err := c.headSize(ctx, urlOf)
	if err != nil {
		return err
	}

	// 是否使用分片模式下载。
	if useMultipart(s, fileSize) {
		return c.downloadToWriterAt(ctx, urlOf, fileSize, fileObj)
	}

	rc, _, err := c.openStream(ctx, urlOf, -1, -1)
	if err != nil {
		return err
	}
	defer closeIO(rc)
	_, err = io.Copy(fileObj, rc)
	return err
}

// GetDownloadAuthorization 获取按前缀下载的授权凭证。
func (c *downloadImpl) GetDownloadAuthorization(ctx context.Context, bucketId, fileNamePrefix string,
	validDurationInSeconds int64, contentDisposition string) (string, error) {

	if err := checkNotEmpty("bucketId", bucketId); err != nil {
		return "", err
	}
	if err := checkValidDuration(validDurationInSeconds); err != nil {
		return "", err
	}

	reqData := struct {
		BucketId               string `json:"bucketId"`
		FileNamePrefix         string `json:"fileNamePrefix"`
		ValidDurationInSeconds int64  `json:"validDurationInSeconds"`
		B2ContentDisposition   string `json:"b2ContentDisposition,omitempty"`
	}{bucketId, fileNamePrefix, validDurationInSeconds, contentDisposition}
	rspData := &struct {
		AuthorizationToken string `json:"authorizationToken"`
	}{}
	if err := c.callApi(ctx, opGetDownloadAuthorization, &reqData, rspData); err != nil {
		return "", err
	}
	return rspData.AuthorizationToken, nil
}

// GetDownloadUrl 拼接文件下载链接。需要已初始化的会话。
func (c *downloadImpl) GetDownloadUrl(bucketName, fileName, authorizationToken string) (string, error) {
	if err := checkNotEmpty("bucketName", bucketName); err != nil {
		return "", err
	}
	if err := checkFileName(fileName); err != nil {
		return "", err
	}
	s := c.Session()
	if !sessionComplete(s) {
		return "", newError(ErrAuth, 0, "", "session is not initialized")
	}

	rawUrl := downloadByNameUrl(s, bucketName, fileName)
	if len(authorizationToken) > 0 {
		rawUrl += "?Authorization=" + url.QueryEscape(authorizationToken)
	}
	return rawUrl, nil
}

// 下载文件，并从读取流中读出。
func (c *downloadImpl) downloadToReader(ctx context.Context, urlOf func(*Session) string) (
	io.ReadCloser, int64, error) {

	s, err := c.requireSession(ctx)
	if err != nil {
		return nil, 0, err
	}

	// 获取文件信息。
	size, err := c.headSize(ctx, urlOf)
	if err != nil {
		return nil, 0, err
	}

	// 是否使用分片模式下载。
	var rc io.ReadCloser
	if useMultipart(s, size) {
		if rc, err = c.multiDownloadToReader(ctx, urlOf, size); err != nil {
			return nil, 0, err
		}
	} else {
		if rc, _, err = c.openStream(ctx, urlOf, -1, -1); err != nil {
			return nil, 0, err
		}
	}

	if c.downloadProgress != nil {
		rc = newProgressReadCloser(rc, size, c.debug, c.downloadProgress)
	}
	return rc, size, nil
}

// 下载文件，并从读取流中读出。
func (c *downloadImpl) multiDownloadToReader(ctx context.Context, urlOf func(*Session) string,
	fileSize int64) (io.ReadCloser, error) {

	var (
		wc iu.WriteAtCloser
		rc io.ReadCloser
	)
	if c.nonUseDisk {
		var rc2 iu.ReadCloser
		wc, rc2 = iu.NewWriteAtToReader2()
		rc = iu.ToReader(rc2)
	} else {
		wc, rc = iu.NewWriteAtToReader()
	}

	type data struct {
		offset, end int64
	}
	run, wait := gu.NewRunner(ctx, NumRoutines, func(ctx context.Context, t *data) error {
		return c.downloadPart(ctx, urlOf, t.offset, t.end, wc, c.nonUseDisk)
	})

	// 并发下载数据。
	go func() {
		partSize := getPartSize(c.Session())
		for offset, end, next := int64(0), partSize-1, true; next; {
			if end >= fileSize-1 {
				end = fileSize - 1
				next = false
			}

			if err := run(&data{offset, end}, false); err != nil {
				printError(wc.CloseByError(err))
				return
			}
			offset += partSize
			end = offset + partSize - 1
		}
		printError(wc.CloseByError(wait(true)))
	}()

	return rc, nil
}

// 下载文件到写入流。
func (c *downloadImpl) downloadToWriterAt(ctx context.Context, urlOf func(*Session) string,
	fileSize int64, wa io.WriterAt) (err error) {

	type data struct {
		offset, end int64
	}
	run, wait := gu.NewRunner(ctx, NumRoutines, func(ctx context.Context, t *data) error {
		return c.downloadPart(ctx, urlOf, t.offset, t.end, wa, false)
	})

	// 并发下载。
	partSize := getPartSize(c.Session())
	for offset, end, next := int64(0), partSize-1, true; next; {
		if end >= fileSize-1 {
			end = fileSize - 1
			next = false
		}
		if err = run(&data{offset, end}, false); err != nil {
			return err
		}
		offset += partSize
		end = offset + partSize - 1
	}

	return wait(true)
}

// 下载分片字节数据到写入流。
func (c *downloadImpl) downloadPart(ctx context.Context, urlOf func(*Session) string, offset, end int64,
	wa io.WriterAt, nonBuffer bool) error {

	rc, _, err := c.openStream(ctx, urlOf, offset, end)
	if err != nil {
		return err
	}
	defer closeIO(rc)

	n, err := iu.CopyReaderToWriterAt(rc, wa, offset, nonBuffer)
	if err != nil {
		return err
	}
	if n != end-offset+1 {
		return fmt.Errorf("part size not match, actual is %v, expected is %v, offset is %v, end is %v",
			n, end-offset+1, offset, end)
	}

	return nil
}

// 发起一次下载请求，重试直到拿到响应体。offset 小于 0 时下载整个文件。
func (c *downloadImpl) openStream(ctx context.Context, urlOf func(*Session) string, offset, end int64) (
	io.ReadCloser, int64, error) {

	var rc io.ReadCloser
	var size int64
	err := c.withAuthRecovery(ctx, func(ctx context.Context) error {
		s, err := c.requireSession(ctx)
		if err != nil {
			return err
		}
		return doRetry(ctx, c.newRetryPolicy(), func(ctx context.Context) error {
			header := http.Header{}
			header.Set("Authorization", s.AuthorizationToken)
			if offset >= 0 {
				header.Set("Range", fmt.Sprintf("bytes=%d-%d", offset, end))
			}
			req, err := c.genReq(http.MethodGet, urlOf(s), header, nil)
			if err != nil {
				return err
			}

			rsp, cancel, err := c.sendHttp(ctx, req, c.getDownloadTimeout())
			if err != nil {
				return err
			}
			rc = &cancelReadCloser{rsp.Body, cancel}
			size = rsp.ContentLength
			return nil
		})
	})
	if err != nil {
		return nil, 0, err
	}
	return rc, size, nil
}

// 获取文件大小。
func (c *downloadImpl) headSize(ctx context.Context, urlOf func(*Session) string) (int64, error) {
	var size int64
	err := c.withAuthRecovery(ctx, func(ctx context.Context) error {
		s, err := c.requireSession(ctx)
		if err != nil {
			return err
		}
		return doRetry(ctx, c.newRetryPolicy(), func(ctx context.Context) error {
			header := http.Header{}
			header.Set("Authorization", s.AuthorizationToken)
			req, err := c.genReq(http.MethodHead, urlOf(s), header, nil)
			if err != nil {
				return err
			}

			rsp, cancel, err := c.sendHttp(ctx, req, c.getTimeout())
			if err != nil {
				return err
			}
			closeRsp(rsp)
			cancel()
			if rsp.ContentLength < 0 {
				return newError(ErrHttp, rsp.StatusCode, "", "content length is unknown")
			}
			size = rsp.ContentLength
			return nil
		})
	})
	if err != nil {
		return 0, err
	}
	return size, nil
}

// 读取流关闭时一并解除本次调用的截止时间。读取中途超时或取消时归类错误。
type cancelReadCloser struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelReadCloser) Read(p []byte) (int, error) {
	n, err := c.ReadCloser.Read(p)
	switch {
	case err == nil || errors.Is(err, io.EOF):
	case errors.Is(err, context.DeadlineExceeded):
		err = newError(ErrTimeout, 0, "", err.Error())
	case errors.Is(err, context.Canceled):
		err = newError(ErrCancelled, 0, "", err.Error())
	}
	return n, err
}

func (c *cancelReadCloser) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
