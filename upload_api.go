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

type Uploader interface {
	// Upload 上传文件。文件超过分片大小时自动使用分片上传。
	// contentType 传空串时取 ContentTypeAuto。info 为可选的附加信息。
	Upload(ctx context.Context, bucketId, fileName, contentType string, info map[string]string,
		content []byte) (*FileInfo, error)

	// UploadFromReader 上传文件。数据长度未知，从读取流读到结尾为止。
	UploadFromReader(ctx context.Context, bucketId, fileName, contentType string, info map[string]string,
		r io.Reader) (*FileInfo, error)

	// UploadFromReaderWithSize 上传文件。数据长度已知。
	UploadFromReaderWithSize(ctx context.Context, bucketId, fileName, contentType string,
		info map[string]string, contentLength int64, r io.Reader) (*FileInfo, error)

	// UploadFromDisk 上传本地文件。
	UploadFromDisk(ctx context.Context, bucketId, fileName, contentType string, info map[string]string,
		filePath string) (*FileInfo, error)

	MultiUploader
}
