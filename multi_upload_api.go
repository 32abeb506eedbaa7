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
	"io"
)

// FilePartInfo 大文件分片信息。
type FilePartInfo struct {
	FileId          string `json:"fileId"`
	PartNumber      int64  `json:"partNumber"`
	ContentLength   int64  `json:"contentLength"`
	ContentSha1     string `json:"contentSha1"`
	UploadTimestamp int64  `json:"uploadTimestamp,omitempty"`
}

type MultiUploader interface {
	// StartLargeFile 开启大文件上传,返回文件 Id。
	StartLargeFile(ctx context.Context, bucketId, fileName, contentType string,
		info map[string]string) (fileId string, err error)

	// GetUploadPartUrl 获取分片上传地址与凭证。凭证失效或上传失败后需重新获取。
	GetUploadPartUrl(ctx context.Context, fileId string) (*UploadSlot, error)

	// UploadPart 上传一个分片。contentSha1 传空串时自动计算。
	// 上传失败后 slot 作废,换新的再试。
	UploadPart(ctx context.Context, slot *UploadSlot, partNumber int64, contentSha1 string,
		reqBody []byte) (partSha1 string, err error)

	// ListParts 列举大文件已上传的分片。nextPartNumber 为零值时表示没有更多分片。
	ListParts(ctx context.Context, fileId string, startPartNumber, maxPartCount int64) (
		parts []*FilePartInfo, nextPartNumber int64, err error)

	// ListUnfinishedLargeFiles 列举桶内未完成的大文件。nextFileId 为空时表示没有更多文件。
	ListUnfinishedLargeFiles(ctx context.Context, bucketId, startFileId string, maxFileCount int64) (
		files []*FileInfo, nextFileId string, err error)

	// FinishLargeFile 合并分片完成大文件上传。partSha1s 按分片序号顺序排列。
	FinishLargeFile(ctx context.Context, fileId string, partSha1s []string) (*FileInfo, error)

	// CancelLargeFile 取消大文件上传,已上传的分片被丢弃。
	CancelLargeFile(ctx context.Context, fileId string) error

	// ResumeLargeFile 续传未完成的大文件。r 从文件起始处读取,已上传的分片将被跳过。
	ResumeLargeFile(ctx context.Context, fileId string, contentLength int64, r io.Reader) (*FileInfo, error)
}
