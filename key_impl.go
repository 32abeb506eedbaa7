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

type keyImpl struct {
	*baseImpl
}

// CreateKey 创建应用密钥。
func (c *keyImpl) CreateKey(ctx context.Context, keyName string, capabilities []string,
	validDurationInSeconds int64, bucketId, namePrefix string) (*Key, error) {

	if err := checkKeyName(keyName); err != nil {
		return nil, err
	}
	if len(capabilities) <= 0 {
		return nil, newValidationError("capabilities is empty")
	}
	if validDurationInSeconds != 0 {
		if err := checkValidDuration(validDurationInSeconds); err != nil {
			return nil, err
		}
	}
	if len(namePrefix) > 0 && len(bucketId) <= 0 {
		return nil, newValidationError("namePrefix requires bucketId")
	}
	s, err := c.requireSession(ctx)
	if err != nil {
		return nil, err
	}

	reqData := struct {
		AccountId              string   `json:"accountId"`
		KeyName                string   `json:"keyName"`
		Capabilities           []string `json:"capabilities"`
		ValidDurationInSeconds int64    `json:"validDurationInSeconds,omitempty"`
		BucketId               string   `json:"bucketId,omitempty"`
		NamePrefix             string   `json:"namePrefix,omitempty"`
	}{s.AccountId, keyName, capabilities, validDurationInSeconds, bucketId, namePrefix}
	key := &Key{}
	if err = c.callApi(ctx, opCreateKey, &reqData, key); err != nil {
		return nil, err
	}

	return key, nil
}

// DeleteKey 删除应用密钥。
func (c *keyImpl) DeleteKey(ctx context.Context, applicationKeyId string) (*Key, error) {
	if err := checkNotEmpty("applicationKeyId", applicationKeyId); err != nil {
		return nil, err
	}

	reqData := struct {
		ApplicationKeyId string `json:"applicationKeyId"`
	}{applicationKeyId}
	key := &Key{}
	if err := c.callApi(ctx, opDeleteKey, &reqData, key); err != nil {
		return nil, err
	}

	return key, nil
}

// ListKeys 列出账户下的应用密钥。
func (c *keyImpl) ListKeys(ctx context.Context, startApplicationKeyId string, maxKeyCount int64) (
	[]*Key, string, error) {

	s, err := c.requireSession(ctx)
	if err != nil {
		return nil, "", err
	}

	reqData := struct {
		AccountId             string `json:"accountId"`
		MaxKeyCount           int64  `json:"maxKeyCount,omitempty"`
		StartApplicationKeyId string `json:"startApplicationKeyId,omitempty"`
	}{s.AccountId, maxKeyCount, startApplicationKeyId}
	var rspData struct {
		Keys                 []*Key `json:"keys"`
		NextApplicationKeyId string `json:"nextApplicationKeyId"`
	}
	if err = c.callApi(ctx, opListKeys, &reqData, &rspData); err != nil {
		return nil, "", err
	}

	return rspData.Keys, rspData.NextApplicationKeyId, nil
}
