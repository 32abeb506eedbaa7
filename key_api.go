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

// Key 应用密钥信息。
type Key struct {
	// ApplicationKeyId 密钥 ID。
	ApplicationKeyId string `json:"applicationKeyId"`
	// ApplicationKey 密钥。仅在创建时返回一次。
	ApplicationKey string `json:"applicationKey,omitempty"`
	// AccountId 账户 ID。
	AccountId string `json:"accountId"`
	// KeyName 密钥显示名称。
	KeyName string `json:"keyName"`
	// Capabilities 密钥权限。
	Capabilities []string `json:"capabilities"`
	// ExpirationTimestamp 过期时间戳，毫秒。0 表示不过期。
	ExpirationTimestamp int64 `json:"expirationTimestamp,omitempty"`
	// BucketId 限定的存储桶 ID。空串表示不限定。
	BucketId string `json:"bucketId,omitempty"`
	// NamePrefix 限定的文件名前缀。空串表示不限定。
	NamePrefix string `json:"namePrefix,omitempty"`
}

type Keyer interface {
	// CreateKey 创建应用密钥。
	// validDurationInSeconds 大于 0 时密钥在该时长后过期。bucketId 和 namePrefix 为可选限定。
	CreateKey(ctx context.Context, keyName string, capabilities []string, validDurationInSeconds int64,
		bucketId, namePrefix string) (*Key, error)

	// DeleteKey 删除应用密钥。返回被删除的密钥信息。
	DeleteKey(ctx context.Context, applicationKeyId string) (*Key, error)

	// ListKeys 列出账户下的应用密钥。startApplicationKeyId 为上一页返回的游标。
	ListKeys(ctx context.Context, startApplicationKeyId string, maxKeyCount int64) (
		keys []*Key, nextApplicationKeyId string, err error)
}
