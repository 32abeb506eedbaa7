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

// Session 鉴权成功后获得的会话信息。
type Session struct {
	// AuthorizationToken 短时效的鉴权凭证。
	AuthorizationToken string `json:"authorizationToken"`
	// ApiUrl 本会话的接口基础地址。
	ApiUrl string `json:"apiUrl"`
	// DownloadUrl 本会话的下载基础地址。
	DownloadUrl string `json:"downloadUrl"`
	// AccountId 账户 ID。
	AccountId string `json:"accountId"`
	// RecommendedPartSize 服务端推荐的分片大小。
	RecommendedPartSize int64 `json:"recommendedPartSize"`
	// AbsoluteMinimumPartSize 服务端允许的最小分片大小。
	AbsoluteMinimumPartSize int64 `json:"absoluteMinimumPartSize"`
	// Capabilities 密钥拥有的权限。
	Capabilities []string `json:"capabilities"`
}

type Authorizer interface {
	// Authorize 使用应用密钥进行鉴权，获取会话信息。
	//
	// 其余操作首次调用时会自动鉴权，凭证失效时也会自动刷新，通常无需显式调用。
	Authorize(ctx context.Context) error

	// Refresh 清除会话信息后重新鉴权。没有应用密钥时报错。
	Refresh(ctx context.Context) error

	// Clear 清除会话信息。
	Clear()

	// IsAuthorized 会话信息是否完整可用。
	IsAuthorized() bool

	// Session 获取会话信息快照。修改返回值不影响客户端。未鉴权时返回 nil。
	Session() *Session

	// SaveSession 注入外部获取的会话信息。传 nil 等同 Clear。
	SaveSession(s *Session)
}
