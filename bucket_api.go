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

// Bucket 存储桶信息。
type Bucket struct {
	// AccountId 账户 ID。
	AccountId string `json:"accountId"`
	// BucketId 存储桶 ID。
	BucketId string `json:"bucketId"`
	// BucketName 存储桶名称。
	BucketName string `json:"bucketName"`
	// BucketType 存储桶类型。取值 BucketTypeAllPrivate 或 BucketTypeAllPublic。
	BucketType string `json:"bucketType"`
	// BucketInfo 附加信息。
	BucketInfo map[string]string `json:"bucketInfo,omitempty"`
	// Revision 修订计数。每次更新加一。
	Revision int64 `json:"revision"`
}

// UploadSlot 上传位置。一个位置只可用于一次成功上传，失败后需要重新获取。
type UploadSlot struct {
	// BucketId 普通上传时所属的存储桶 ID。
	BucketId string `json:"bucketId,omitempty"`
	// FileId 分片上传时所属的大文件 ID。
	FileId string `json:"fileId,omitempty"`
	// UploadUrl 上传地址。
	UploadUrl string `json:"uploadUrl"`
	// AuthorizationToken 上传凭证。
	AuthorizationToken string `json:"authorizationToken"`
}

type Bucketer interface {
	// CreateBucket 创建存储桶。bucketType 取值 BucketTypeAllPrivate 或 BucketTypeAllPublic。
	CreateBucket(ctx context.Context, bucketName, bucketType string, info map[string]string) (*Bucket, error)

	// DeleteBucket 删除存储桶。返回被删除的存储桶信息。
	DeleteBucket(ctx context.Context, bucketId string) (*Bucket, error)

	// ListBuckets 获取账户下的所有存储桶。
	ListBuckets(ctx context.Context) ([]*Bucket, error)

	// UpdateBucket 更新存储桶类型或附加信息。ifRevisionIs 大于 0 时表示仅当修订计数相符才更新。
	UpdateBucket(ctx context.Context, bucketId, bucketType string, info map[string]string,
		ifRevisionIs int64) (*Bucket, error)

	// GetUploadUrl 获取普通上传位置。
	GetUploadUrl(ctx context.Context, bucketId string) (*UploadSlot, error)
}
