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

package b2_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	b2 "gitee.com/ivfzhou/backblaze-b2-object-api"
)

func TestCreateKey(t *testing.T) {
	t.Run("正常运行", func(t *testing.T) {
		fn := func(req *http.Request) (*http.Response, error) {
			if op := Op(req); op != "b2_create_key" {
				t.Errorf("unexpected op: want b2_create_key, got %v", op)
			}
			var reqData struct {
				AccountId              string   `json:"accountId"`
				KeyName                string   `json:"keyName"`
				Capabilities           []string `json:"capabilities"`
				ValidDurationInSeconds int64    `json:"validDurationInSeconds"`
				BucketId               string   `json:"bucketId"`
				NamePrefix             string   `json:"namePrefix"`
			}
			if err := json.Unmarshal(ReadBody(req), &reqData); err != nil {
				t.Errorf("unexpected body: %v", err)
			}
			if reqData.AccountId != accountId || reqData.KeyName != "ci-key" ||
				len(reqData.Capabilities) != 2 || reqData.ValidDurationInSeconds != 3600 ||
				reqData.BucketId != "bucket001" || reqData.NamePrefix != "docs/" {
				t.Errorf("unexpected req data: got %+v", reqData)
			}
			return JsonRsp(map[string]any{
				"applicationKeyId": "key001",
				"applicationKey":   "secret-only-once",
				"accountId":        accountId,
				"keyName":          "ci-key",
				"capabilities":     reqData.Capabilities,
			}), nil
		}
		client := NewTestClient(fn)
		key, err := client.CreateKey(context.Background(), "ci-key",
			[]string{"readFiles", "writeFiles"}, 3600, "bucket001", "docs/")
		if err != nil {
			t.Fatalf("unexpected error: want nil, got %v", err)
		}
		if key == nil || key.ApplicationKeyId != "key001" || key.ApplicationKey != "secret-only-once" {
			t.Errorf("unexpected key: got %+v", key)
		}
	})

	t.Run("入参不合法", func(t *testing.T) {
		client := NewTestClient(func(req *http.Request) (*http.Response, error) {
			t.Errorf("unexpected request: %v", req.URL)
			return nil, errors.New("unexpected request")
		})
		ctx := context.Background()
		caps := []string{"readFiles"}
		cases := []struct {
			keyName  string
			caps     []string
			duration int64
		}{
			{"", caps, 0},
			{strings.Repeat("a", 101), caps, 0},
			{"has space", caps, 0},
			{"ok-name", nil, 0},
			{"ok-name", caps, -1},
			{"ok-name", caps, 604801},
		}
		for _, c := range cases {
			_, err := client.CreateKey(ctx, c.keyName, c.caps, c.duration, "", "")
			if !errors.Is(err, b2.ErrValidation) {
				t.Errorf("unexpected error for %+v: want ErrValidation, got %v", c, err)
			}
		}

		// namePrefix 需要配合 bucketId。
		if _, err := client.CreateKey(ctx, "ok-name", caps, 0, "", "docs/"); !errors.Is(err,
			b2.ErrValidation) {
			t.Errorf("unexpected error: want ErrValidation, got %v", err)
		}
	})

	t.Run("有效时长边界", func(t *testing.T) {
		fn := func(req *http.Request) (*http.Response, error) {
			return JsonRsp(map[string]any{"applicationKeyId": "key001"}), nil
		}
		client := NewTestClient(fn)
		ctx := context.Background()
		for _, d := range []int64{0, 1, 604800} {
			if _, err := client.CreateKey(ctx, "ok-name", []string{"readFiles"}, d, "", ""); err != nil {
				t.Errorf("unexpected error for %d: want nil, got %v", d, err)
			}
		}
	})
}

func TestDeleteKey(t *testing.T) {
	t.Run("正常运行", func(t *testing.T) {
		fn := func(req *http.Request) (*http.Response, error) {
			if op := Op(req); op != "b2_delete_key" {
				t.Errorf("unexpected op: want b2_delete_key, got %v", op)
			}
			var reqData struct {
				ApplicationKeyId string `json:"applicationKeyId"`
			}
			if err := json.Unmarshal(ReadBody(req), &reqData); err != nil {
				t.Errorf("unexpected body: %v", err)
			}
			if reqData.ApplicationKeyId != "key001" {
				t.Errorf("unexpected req data: got %+v", reqData)
			}
			return JsonRsp(map[string]any{"applicationKeyId": "key001", "keyName": "ci-key"}), nil
		}
		client := NewTestClient(fn)
		key, err := client.DeleteKey(context.Background(), "key001")
		if err != nil {
			t.Fatalf("unexpected error: want nil, got %v", err)
		}
		if key == nil || key.KeyName != "ci-key" {
			t.Errorf("unexpected key: got %+v", key)
		}
	})

	t.Run("密钥权限不足", func(t *testing.T) {
		fn := func(req *http.Request) (*http.Response, error) {
			return ErrRsp(http.StatusUnauthorized, "not_allowed", "missing capability"), nil
		}
		client := NewTestClient(fn)
		_, err := client.DeleteKey(context.Background(), "key001")
		if err == nil {
			t.Errorf("unexpected error: want non-nil, got nil")
		}
	})
}

func TestListKeys(t *testing.T) {
	t.Run("分页", func(t *testing.T) {
		fn := func(req *http.Request) (*http.Response, error) {
			var reqData struct {
				AccountId             string `json:"accountId"`
				StartApplicationKeyId string `json:"startApplicationKeyId"`
				MaxKeyCount           int64  `json:"maxKeyCount"`
			}
			if err := json.Unmarshal(ReadBody(req), &reqData); err != nil {
				t.Errorf("unexpected body: %v", err)
			}
			if reqData.AccountId != accountId {
				t.Errorf("unexpected account id: got %v", reqData.AccountId)
			}
			if reqData.StartApplicationKeyId == "" {
				return JsonRsp(map[string]any{
					"keys":                 []map[string]any{{"applicationKeyId": "key001"}},
					"nextApplicationKeyId": "key002",
				}), nil
			}
			return JsonRsp(map[string]any{
				"keys":                 []map[string]any{{"applicationKeyId": "key002"}},
				"nextApplicationKeyId": nil,
			}), nil
		}
		client := NewTestClient(fn)
		ctx := context.Background()
		keys, next, err := client.ListKeys(ctx, "", 1)
		if err != nil {
			t.Fatalf("unexpected error: want nil, got %v", err)
		}
		if len(keys) != 1 || keys[0].ApplicationKeyId != "key001" || next != "key002" {
			t.Errorf("unexpected page: got %+v, next %v", keys, next)
		}
		keys, next, err = client.ListKeys(ctx, next, 1)
		if err != nil {
			t.Fatalf("unexpected error: want nil, got %v", err)
		}
		if len(keys) != 1 || keys[0].ApplicationKeyId != "key002" || next != "" {
			t.Errorf("unexpected page: got %+v, next %v", keys, next)
		}
	})
}
