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

import "context"

// FileInfo 文件版本信息。
type FileInfo struct {
	// FileId 文件版本 ID。
	FileId string `json:"fileId"`
	// FileName 文件名。
	FileName string `json:"fileName"`
	// AccountId 账户 ID。
	AccountId string `json:"accountId,omitempty"`
	// BucketId 所属存储桶 ID。
	BucketId string `json:"bucketId,omitempty"`
	// ContentLength 文件大小。
	ContentLength int64 `json:"contentLength"`
	// ContentSha1 文件内容的 SHA-1 十六进制小写串。
	ContentSha1 string `json:"contentSha1,omitempty"`
	// ContentType 内容类型。
	ContentType string `json:"contentType,omitempty"`
	// FileInfo 附加信息。
	FileInfo map[string]string `json:"fileInfo,omitempty"`
	// Action 动作标记。取值 ActionUpload、ActionHide、ActionStart、ActionFolder。
	Action string `json:"action,omitempty"`
	// UploadTimestamp 上传时间戳，毫秒。
	UploadTimestamp int64 `json:"uploadTimestamp,omitempty"`
}

type Querier interface {
	// GetFileInfo 获取文件版本信息。
	GetFileInfo(ctx context.Context, fileId string) (*FileInfo, error)

	// ListFileNames 按名称列出文件。startFileName 为上一页返回的游标，空串表示第一页。
	// maxFileCount 不大于 0 时由服务端决定。
	ListFileNames(ctx context.Context, bucketId, startFileName, prefix, delimiter string,
		maxFileCount int64) (files []*FileInfo, nextFileName string, err error)

	// ListFileVersions 列出文件的所有版本。startFileName 和 startFileId 为上一页返回的游标。
	ListFileVersions(ctx context.Context, bucketId, startFileName, startFileId, prefix, delimiter string,
		maxFileCount int64) (files []*FileInfo, nextFileName, nextFileId string, err error)
}
