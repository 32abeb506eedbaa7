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

type deleteImpl struct {
	*baseImpl
}

// DeleteFileVersion 删除一个文件版本。
func (c *deleteImpl) DeleteFileVersion(ctx context.Context, fileName, fileId string) error {
	if err := checkFileName(fileName); err != nil {
		return err
	}
	if err := checkNotEmpty("fileId", fileId); err != nil {
		return err
	}

	reqData := struct {
		FileName string `json:"fileName"`
		FileId   string `json:"fileId"`
	}{fileName, fileId}

	return c.callApi(ctx, opDeleteFileVersion, &reqData, nil)
}

// HideFile 隐藏文件。
func (c *deleteImpl) HideFile(ctx context.Context, bucketId, fileName string) (*FileInfo, error) {
	if err := checkNotEmpty("bucketId", bucketId); err != nil {
		return nil, err
	}
	if err := checkFileName(fileName); err != nil {
		return nil, err
	}

	reqData := struct {
		BucketId string `json:"bucketId"`
		FileName string `json:"fileName"`
	}{bucketId, fileName}
	info := &FileInfo{}
	if err := c.callApi(ctx, opHideFile, &reqData, info); err != nil {
		return nil, err
	}

	return info, nil
}
