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

type Deleter interface {
	// DeleteFileVersion 删除一个文件版本。
	DeleteFileVersion(ctx context.Context, fileName, fileId string) error

	// HideFile 隐藏文件。之后按名称下载和列出时不可见，既有版本仍保留。
	HideFile(ctx context.Context, bucketId, fileName string) (*FileInfo, error)
}
