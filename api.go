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

import "time"

var (
	// PartSize 分片上传下载时，每个分片的大小。为 0 时使用会话中服务端推荐的分片大小。
	// 不可在文件上传下载期间修改值。
	PartSize int64 = 0

	// NumRoutines 分片上传下载时，并发运行协程的数量。
	NumRoutines = 4

	// AuthorizeUrl 鉴权接口地址。除测试外不应修改。
	AuthorizeUrl = "https://api.backblazeb2.com/b2api/v4/b2_authorize_account"
)

// 默认的超时与重试参数。可通过 option 覆盖。
const (
	DefaultTimeout         = 30 * time.Second
	DefaultUploadTimeout   = 300 * time.Second
	DefaultRetries         = 3
	DefaultRetryDelay      = time.Second
	DefaultRetryMultiplier = 2.0
	DefaultMaxRetryDelay   = 30 * time.Second
)

type Api interface {
	Authorizer
	Bucketer
	Uploader
	Downloader
	Deleter
	Querier
	Keyer
}

type impl struct {
	*baseImpl
	Bucketer
	Uploader
	Downloader
	Deleter
	Querier
	Keyer
}

// NewClient 创建 B2 Object 操作客户端。
//
// appKeyId 与 appKey 为应用密钥。可以都传空串，此时需要调用 SaveSession 注入外部获取的会话信息，
// 且会话过期后无法自动刷新。
func NewClient(appKeyId, appKey string, opts ...option) Api {
	c := &baseImpl{
		appKeyId: appKeyId,
		appKey:   appKey,
	}

	// 设置参数。
	for _, v := range opts {
		if v == nil {
			continue
		}
		v(&c.options)
	}

	multiUploader := &multiUploadImpl{c}
	uploader := &uploadImpl{c, multiUploader}
	downloader := &downloadImpl{c}
	querier := &queryImpl{c}
	deleter := &deleteImpl{c}
	keyer := &keyImpl{c}
	bucketer := &bucketImpl{c}

	return &impl{c, bucketer, uploader, downloader, deleter, querier, keyer}
}
