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

type queryImpl struct {
	*baseImpl
}

// GetFileInfo 获取文件版本信息。
func (c *queryImpl) GetFileInfo(ctx context.Context, fileId string) (*FileInfo, error) {
	if err := checkNotEmpty("fileId", fileId); err != nil {
		return nil, err
	}

	reqData := struct {
		FileId string `json:"fileId"`
	}{fileId}
	info := &FileInfo{}
	if err := c.callApi(ctx, opGetFileInfo, &reqData, info); err != nil {
		return nil, err
	}

	return info, nil
}

// ListFileNames 按名称列出文件。
func (c *queryImpl) ListFileNames(ctx context.Context, bucketId, startFileName, prefix, delimiter string,
	maxFileCount int64) ([]*FileInfo, string, error) {

	if err := checkNotEmpty("bucketId", bucketId); err != nil {
		return nil, "", err
	}

	reqData := struct {
		BucketId      string `json:"bucketId"`
		StartFileName string `json:"startFileName,omitempty"`
		Prefix        string `json:"prefix,omitempty"`
		Delimiter     string `json:"delimiter,omitempty"`
		MaxFileCount  int64  `json:"maxFileCount,omitempty"`
	}{bucketId, startFileName, prefix, delimiter, maxFileCount}
	var rspData struct {
		Files        []*FileInfo `json:"files"`
		NextFileName string      `json:"nextFileName"`
	}
	if err := c.callApi(ctx, opListFileNames, &reqData, &rspData); err != nil {
		return nil, "", err
	}

	return rspData.Files, rspData.NextFileName, nil
}

// ListFileVersions 列出文件的所有版本。
func (c *queryImpl) ListFileVersions(ctx context.Context, bucketId, startFileName, startFileId, prefix,
	delimiter string, maxFileCount int64) ([]*FileInfo, string, string, error) {

	if err := checkNotEmpty("bucketId", bucketId); err != nil {
		return nil, "", "", err
	}

	reqData := struct {
		BucketId      string `json:"bucketId"`
		StartFileName string `json:"startFileName,omitempty"`
		StartFileId   string `json:"startFileId,omitempty"`
		Prefix        string `json:"prefix,omitempty"`
		Delimiter     string `json:"delimiter,omitempty"`
		MaxFileCount  int64  `json:"maxFileCount,omitempty"`
	}{bucketId, startFileName, startFileId, prefix, delimiter, maxFileCount}
	var rspData struct {
		Files        []*FileInfo `json:"files"`
		NextFileName string      `json:"nextFileName"`
		NextFileId   string      `json:"nextFileId"`
	}
	if err := c.callApi(ctx, opListFileVersions, &reqData, &rspData); err != nil {
		return nil, "", "", err
	}

	return rspData.Files, rspData.NextFileName, rspData.NextFileId, nil
}
