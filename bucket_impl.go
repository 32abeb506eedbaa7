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

type bucketImpl struct {
	*baseImpl
}

// CreateBucket 创建存储桶。
func (c *bucketImpl) CreateBucket(ctx context.Context, bucketName, bucketType string,
	info map[string]string) (*Bucket, error) {

	if err := checkBucketName(bucketName); err != nil {
		return nil, err
	}
	if err := checkBucketType(bucketType); err != nil {
		return nil, err
	}
	s, err := c.requireSession(ctx)
	if err != nil {
		return nil, err
	}

	reqData := struct {
		AccountId  string            `json:"accountId"`
		BucketName string            `json:"bucketName"`
		BucketType string            `json:"bucketType"`
		BucketInfo map[string]string `json:"bucketInfo,omitempty"`
	}{s.AccountId, bucketName, bucketType, info}
	bucket := &Bucket{}
	if err = c.callApi(ctx, opCreateBucket, &reqData, bucket); err != nil {
		return nil, err
	}

	return bucket, nil
}

// DeleteBucket 删除存储桶。
func (c *bucketImpl) DeleteBucket(ctx context.Context, bucketId string) (*Bucket, error) {
	if err := checkNotEmpty("bucketId", bucketId); err != nil {
		return nil, err
	}
	s, err := c.requireSession(ctx)
	if err != nil {
		return nil, err
	}

	reqData := struct {
		AccountId string `json:"accountId"`
		BucketId  string `json:"bucketId"`
	}{s.AccountId, bucketId}
	bucket := &Bucket{}
	if err = c.callApi(ctx, opDeleteBucket, &reqData, bucket); err != nil {
		return nil, err
	}

	return bucket, nil
}

// ListBuckets 获取账户下的所有存储桶。
func (c *bucketImpl) ListBuckets(ctx context.Context) ([]*Bucket, error) {
	s, err := c.requireSession(ctx)
	if err != nil {
		return nil, err
	}

	reqData := struct {
		AccountId string `json:"accountId"`
	}{s.AccountId}
	var rspData struct {
		Buckets []*Bucket `json:"buckets"`
	}
	if err = c.callApi(ctx, opListBuckets, &reqData, &rspData); err != nil {
		return nil, err
	}

	return rspData.Buckets, nil
}

// UpdateBucket 更新存储桶类型或附加信息。
func (c *bucketImpl) UpdateBucket(ctx context.Context, bucketId, bucketType string, info map[string]string,
	ifRevisionIs int64) (*Bucket, error) {

	if err := checkNotEmpty("bucketId", bucketId); err != nil {
		return nil, err
	}
	if len(bucketType) > 0 {
		if err := checkBucketType(bucketType); err != nil {
			return nil, err
		}
	}
	s, err := c.requireSession(ctx)
	if err != nil {
		return nil, err
	}

	reqData := struct {
		AccountId    string            `json:"accountId"`
		BucketId     string            `json:"bucketId"`
		BucketType   string            `json:"bucketType,omitempty"`
		BucketInfo   map[string]string `json:"bucketInfo,omitempty"`
		IfRevisionIs int64             `json:"ifRevisionIs,omitempty"`
	}{s.AccountId, bucketId, bucketType, info, ifRevisionIs}
	bucket := &Bucket{}
	if err = c.callApi(ctx, opUpdateBucket, &reqData, bucket); err != nil {
		return nil, err
	}

	return bucket, nil
}

// GetUploadUrl 获取普通上传位置。
func (c *bucketImpl) GetUploadUrl(ctx context.Context, bucketId string) (*UploadSlot, error) {
	if err := checkNotEmpty("bucketId", bucketId); err != nil {
		return nil, err
	}

	reqData := struct {
		BucketId string `json:"bucketId"`
	}{bucketId}
	slot := &UploadSlot{}
	if err := c.callApi(ctx, opGetUploadUrl, &reqData, slot); err != nil {
		return nil, err
	}

	return slot, nil
}
