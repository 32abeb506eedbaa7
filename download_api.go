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

type Downloader interface {
	// DownloadFileByName 按桶名与文件名下载文件。文件较大时自动分片并发下载。
	//
	// 注意：调用方负责关闭 rc。
	DownloadFileByName(ctx context.Context, bucketName, fileName string) (rc io.ReadCloser, size int64, err error)

	// DownloadFileById 按文件 Id 下载文件。
	//
	// 注意：调用方负责关闭 rc。
	DownloadFileById(ctx context.Context, fileId string) (rc io.ReadCloser, size int64, err error)

	// DownloadToWriter 下载文件写入 w。
	DownloadToWriter(ctx context.Context, bucketName, fileName string, w io.Writer) error

	// DownloadToWriterAt 下载文件写入 wa。文件较大时分片并发写入。
	DownloadToWriterAt(ctx context.Context, bucketName, fileName string, wa io.WriterAt) error

	// DownloadToDisk 下载文件保存到本地。失败时删除残留文件。
	DownloadToDisk(ctx context.Context, bucketName, fileName, filePath string) error

	// GetDownloadAuthorization 获取按前缀下载的授权凭证。
	GetDownloadAuthorization(ctx context.Context, bucketId, fileNamePrefix string,
		validDurationInSeconds int64, contentDisposition string) (string, error)

	// GetDownloadUrl 拼接文件下载链接。authorizationToken 非空时作为查询参数附加。
	GetDownloadUrl(bucketName, fileName, authorizationToken string) (string, error)
}
