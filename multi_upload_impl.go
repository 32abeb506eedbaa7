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
	"strconv"
	"sync"

	gu "gitee.com/ivfzhou/goroutine-util"
)

type multiUploadImpl struct {
	*baseImpl
}

// StartLargeFile 开启大文件上传，返回文件 Id。
func (c *multiUploadImpl) StartLargeFile(ctx context.Context, bucketId, fileName, contentType string,
	info map[string]string) (string, error) {

	if err := checkNotEmpty("bucketId", bucketId); err != nil {
		return "", err
	}
	if err := checkFileName(fileName); err != nil {
		return "", err
	}
	if err := checkFileInfo(info); err != nil {
		return "", err
	}
	if len(contentType) <= 0 {
		contentType = ContentTypeAuto
	}

	reqData := struct {
		BucketId    string            `json:"bucketId"`
		FileName    string            `json:"fileName"`
		ContentType string            `json:"contentType"`
		FileInfo    map[string]string `json:"fileInfo,omitempty"`
	}{bucketId, fileName, contentType, info}
	rspData := &FileInfo{}
	if err := c.callApi(ctx, opStartLargeFile, &reqData, rspData); err != nil {
		return "", err
	}
	return rspData.FileId, nil
}

// GetUploadPartUrl 获取分片上传地址与凭证。
func (c *multiUploadImpl) GetUploadPartUrl(ctx context.Context, fileId string) (*UploadSlot, error) {
	if err := checkNotEmpty("fileId", fileId); err != nil {
		return nil, err
	}
	reqData := struct {
		FileId string `json:"fileId"`
	}{fileId}
	slot := &UploadSlot{}
	if err := c.callApi(ctx, opGetUploadPartUrl, &reqData, slot); err != nil {
		return nil, err
	}
	return slot, nil
}

// UploadPart 上传一个分片。contentSha1 传空串时自动计算。
func (c *multiUploadImpl) UploadPart(ctx context.Context, slot *UploadSlot, partNumber int64,
	contentSha1 string, reqBody []byte) (string, error) {

	if slot == nil || len(slot.UploadUrl) <= 0 || len(slot.AuthorizationToken) <= 0 {
		return "", newValidationError("upload slot is invalid")
	}
	if err := checkPartNumber(partNumber); err != nil {
		return "", err
	}
	if err := checkPartSize(int64(len(reqBody))); err != nil {
		return "", err
	}
	if len(contentSha1) <= 0 {
		contentSha1 = sha1Hex(reqBody)
	} else if err := checkSha1(contentSha1); err != nil {
		return "", err
	}

	partInfo, err := c.sendPart(ctx, slot, partNumber, contentSha1, reqBody)
	if err != nil {
		return "", err
	}
	if len(partInfo.ContentSha1) > 0 {
		return partInfo.ContentSha1, nil
	}
	return contentSha1, nil
}

// ListParts 列举大文件已上传的分片。
func (c *multiUploadImpl) ListParts(ctx context.Context, fileId string, startPartNumber,
	maxPartCount int64) ([]*FilePartInfo, int64, error) {

	if err := checkNotEmpty("fileId", fileId); err != nil {
		return nil, 0, err
	}
	reqData := struct {
		FileId          string `json:"fileId"`
		StartPartNumber int64  `json:"startPartNumber,omitempty"`
		MaxPartCount    int64  `json:"maxPartCount,omitempty"`
	}{fileId, startPartNumber, maxPartCount}
	rspData := &struct {
		Parts          []*FilePartInfo `json:"parts"`
		NextPartNumber *int64          `json:"nextPartNumber"`
	}{}
	if err := c.callApi(ctx, opListParts, &reqData, rspData); err != nil {
		return nil, 0, err
	}
	next := int64(0)
	if rspData.NextPartNumber != nil {
		next = *rspData.NextPartNumber
	}
	return rspData.Parts, next, nil
}

// ListUnfinishedLargeFiles 列举桶内未完成的大文件。
func (c *multiUploadImpl) ListUnfinishedLargeFiles(ctx context.Context, bucketId, startFileId string,
	maxFileCount int64) ([]*FileInfo, string, error) {

	if err := checkNotEmpty("bucketId", bucketId); err != nil {
		return nil, "", err
	}
	reqData := struct {
		BucketId     string `json:"bucketId"`
		StartFileId  string `json:"startFileId,omitempty"`
		MaxFileCount int64  `json:"maxFileCount,omitempty"`
	}{bucketId, startFileId, maxFileCount}
	rspData := &struct {
		Files      []*FileInfo `json:"files"`
		NextFileId *string     `json:"nextFileId"`
	}{}
	if err := c.callApi(ctx, opListUnfinishedLargeFiles, &reqData, rspData); err != nil {
		return nil, "", err
	}
	next := ""
	if rspData.NextFileId != nil {
		next = *rspData.NextFileId
	}
	return rspData.Files, next, nil
}

// FinishLargeFile 合并分片完成大文件上传。
func (c *multiUploadImpl) FinishLargeFile(ctx context.Context, fileId string,
	partSha1s []string) (*FileInfo, error) {

	if err := checkNotEmpty("fileId", fileId); err != nil {
		return nil, err
	}
	if len(partSha1s) <= 0 {
		return nil, newValidationError("partSha1Array is empty")
	}
	for i, sum := range partSha1s {
		if err := checkSha1(sum); err != nil {
			return nil, newValidationError("partSha1Array[%d] %q is not a valid sha1 checksum", i, sum)
		}
	}

	reqData := struct {
		FileId        string   `json:"fileId"`
		PartSha1Array []string `json:"partSha1Array"`
	}{fileId, partSha1s}
	rspData := &FileInfo{}
	if err := c.callApi(ctx, opFinishLargeFile, &reqData, rspData); err != nil {
		return nil, err
	}
	return rspData, nil
}

// CancelLargeFile 取消大文件上传，已上传的分片被丢弃。
func (c *multiUploadImpl) CancelLargeFile(ctx context.Context, fileId string) error {
	if err := checkNotEmpty("fileId", fileId); err != nil {
		return err
	}
	reqData := struct {
		FileId string `json:"fileId"`
	}{fileId}
	return c.callApi(ctx, opCancelLargeFile, &reqData, nil)
}

// ResumeLargeFile 续传未完成的大文件。失败时不取消，文件可再次续传。
func (c *multiUploadImpl) ResumeLargeFile(ctx context.Context, fileId string, contentLength int64,
	r io.Reader) (*FileInfo, error) {

	if err := checkNotEmpty("fileId", fileId); err != nil {
		return nil, err
	}
	if r == nil {
		return nil, newValidationError("reader is nil")
	}
	s, err := c.requireSession(ctx)
	if err != nil {
		return nil, err
	}

	// 收集已上传的分片，续传时跳过。
	known := map[int64]string{}
	firstPartLen := int64(0)
	for start := int64(0); ; {
		parts, next, err := c.ListParts(ctx, fileId, start, 0)
		if err != nil {
			return nil, err
		}
		for _, p := range parts {
			known[p.PartNumber] = p.ContentSha1
			if p.PartNumber == 1 {
				firstPartLen = p.ContentLength
			}
		}
		if next <= 0 {
			break
		}
		start = next
	}

	// 分片大小沿用首个已上传分片的大小，保证序号与数据对齐。
	partSize := firstPartLen
	if partSize <= 0 {
		partSize = partSizeFor(s, contentLength)
	}

	sha1s, err := c.runParts(ctx, fileId, partSize, r, known, false)
	if err != nil {
		return nil, err
	}
	return c.FinishLargeFile(ctx, fileId, sha1s)
}

// 分片模式上传。contentLength 未知时传负数。失败时取消大文件。
func (c *multiUploadImpl) multiUpload(ctx context.Context, bucketId, fileName, contentType string,
	info map[string]string, contentLength int64, r io.Reader) (*FileInfo, error) {

	s, err := c.requireSession(ctx)
	if err != nil {
		return nil, err
	}
	partSize := partSizeFor(s, contentLength)

	fileId, err := c.StartLargeFile(ctx, bucketId, fileName, contentType, info)
	if err != nil {
		return nil, err
	}

	sha1s, err := c.runParts(ctx, fileId, partSize, r, nil, true)
	if err != nil {
		return nil, err
	}

	// 合并分片，结束上传。
	fileInfo, err := c.FinishLargeFile(ctx, fileId, sha1s)
	if err != nil {
		noCancelCtx := context.WithoutCancel(ctx)
		go func() { // 出错就丢弃已上传的分片。
			printError(c.CancelLargeFile(noCancelCtx, fileId))
		}()
		return nil, err
	}
	return fileInfo, nil
}

// 并发上传分片，按分片序号归位每个分片的校验和。
//
// known 中的分片序号已在服务端，对应的数据段只消费不发送。
func (c *multiUploadImpl) runParts(ctx context.Context, fileId string, partSize int64, r io.Reader,
	known map[int64]string, cancelOnFailure bool) ([]string, error) {

	var mu sync.Mutex
	var sha1s []string
	record := func(partNumber int64, sum string) {
		mu.Lock()
		for int64(len(sha1s)) < partNumber {
			sha1s = append(sha1s, "")
		}
		sha1s[partNumber-1] = sum
		mu.Unlock()
	}

	slots := make(chan *UploadSlot, NumRoutines)
	type data struct {
		buf []byte
		num int64
	}
	run, wait := gu.NewRunner(ctx, NumRoutines, func(ctx context.Context, t *data) error {
		sum, err := c.uploadPartRetry(ctx, fileId, t.num, t.buf, slots)
		if err != nil {
			return err
		}
		record(t.num, sum)
		return nil
	})

	fail := func(err error) ([]string, error) {
		if cancelOnFailure {
			noCancelCtx := context.WithoutCancel(ctx)
			go func() { // 出错就丢弃已上传的分片。
				_ = wait(false) // 等待所有协程退出。
				printError(c.CancelLargeFile(noCancelCtx, fileId))
			}()
		} else {
			go func() { _ = wait(false) }()
		}
		return nil, err
	}

	for num := int64(1); ; num++ {
		if num > maxPartNumber {
			return fail(newValidationError("file needs more than %d parts", maxPartNumber))
		}

		if sum, ok := known[num]; ok {
			record(num, sum)
			if _, err := io.CopyN(io.Discard, r, partSize); err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
				return fail(err)
			}
			continue
		}

		buf := make([]byte, partSize)
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			if err2 := run(&data{buf[:n], num}, false); err2 != nil {
				return fail(err2)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return fail(err)
		}
	}

	if err := wait(true); err != nil {
		return fail(err)
	}

	for i, sum := range sha1s {
		if len(sum) <= 0 {
			return nil, newValidationError("part %d was not uploaded", i+1)
		}
	}
	return sha1s, nil
}

// 上传一个分片，按重试策略重发。上传位置复用，失败的作废换新。
func (c *multiUploadImpl) uploadPartRetry(ctx context.Context, fileId string, partNumber int64,
	data []byte, slots chan *UploadSlot) (string, error) {

	sum := sha1Hex(data)
	err := doRetry(ctx, c.newUploadRetryPolicy(), func(ctx context.Context) error {
		var slot *UploadSlot
		select {
		case slot = <-slots:
		default:
		}
		if slot == nil {
			var err error
			if slot, err = c.GetUploadPartUrl(ctx, fileId); err != nil {
				return err
			}
		}
		if _, err := c.sendPart(ctx, slot, partNumber, sum, data); err != nil {
			return err
		}
		select {
		case slots <- slot:
		default:
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return sum, nil
}

// 发送一个分片。
func (c *multiUploadImpl) sendPart(ctx context.Context, slot *UploadSlot, partNumber int64, sum string,
	data []byte) (*FilePartInfo, error) {

	header := http.Header{}
	header.Set("Authorization", slot.AuthorizationToken)
	header.Set("X-Bz-Part-Number", strconv.FormatInt(partNumber, 10))
	header.Set("X-Bz-Content-Sha1", sum)
	var body io.Reader = bytes.NewReader(data)
	if c.uploadProgress != nil {
		body = newProgressReader(body, int64(len(data)), c.debug, c.uploadProgress)
	}
	req, err := c.genReqForReader(http.MethodPost, slot.UploadUrl, header, int64(len(data)), body)
	if err != nil {
		return nil, err
	}

	rsp, cancel, err := c.sendHttp(ctx, req, c.getUploadTimeout())
	if err != nil {
		return nil, err
	}
	defer cancel()

	rspBody, err := io.ReadAll(rsp.Body)
	closeRsp(rsp)
	if err != nil {
		return nil, newError(ErrNetwork, 0, "", err.Error())
	}
	partInfo := &FilePartInfo{}
	if err = json.Unmarshal(rspBody, partInfo); err != nil {
		return nil, newError(ErrHttp, rsp.StatusCode, "", fmt.Sprintf("unmarshal upload part response: %v", err))
	}
	return partInfo, nil
}
