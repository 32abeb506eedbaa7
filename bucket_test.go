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
	"sync/atomic"
	"testing"

	b2 "gitee.com/ivfzhou/backblaze-b2-object-api"
)

func TestCreateBucket(t *testing.T) {
	t.Run("正常运行", func(t *testing.T) {
		for i := 0; i < 100; i++ {
			atomic.StoreInt32(&CloseCount, 0)
			fn := func(req *http.Request) (*http.Response, error) {
				if op := Op(req); op != "b2_create_bucket" {
					t.Errorf("unexpected op: want b2_create_bucket, got %v", op)
				}
				if req.Method != http.MethodPost {
					t.Errorf("unexpected method: want %v, got %v", http.MethodPost, req.Method)
				}
				if !strings.HasPrefix(req.URL.String(), apiUrl+"/b2api/v2/") {
					t.Errorf("unexpected url: got %v", req.URL)
				}
				if auth := req.Header.Get("Authorization"); auth != token {
					t.Errorf("unexpected auth: want %v, got %v", token, auth)
				}
				var reqData struct {
					AccountId  string            `json:"accountId"`
					BucketName string            `json:"bucketName"`
					BucketType string            `json:"bucketType"`
					BucketInfo map[string]string `json:"bucketInfo"`
				}
				if err := json.Unmarshal(ReadBody(req), &reqData); err != nil {
					t.Errorf("unexpected body: %v", err)
				}
				if reqData.AccountId != accountId || reqData.BucketName != "my-test-bucket" ||
					reqData.BucketType != b2.BucketTypeAllPrivate {
					t.Errorf("unexpected req data: got %+v", reqData)
				}
				if reqData.BucketInfo["origin"] != "unit" {
					t.Errorf("unexpected bucket info: got %+v", reqData.BucketInfo)
				}
				return JsonRsp(map[string]any{
					"accountId":  accountId,
					"bucketId":   "bucket001",
					"bucketName": "my-test-bucket",
					"bucketType": b2.BucketTypeAllPrivate,
					"revision":   1,
				}), nil
			}
			client := NewTestClient(fn)
			bucket, err := client.CreateBucket(context.Background(), "my-test-bucket",
				b2.BucketTypeAllPrivate, map[string]string{"origin": "unit"})
			if err != nil {
				t.Errorf("unexpected error: want nil, got %v", err)
			}
			if bucket == nil || bucket.BucketId != "bucket001" || bucket.Revision != 1 {
				t.Errorf("unexpected bucket: got %+v", bucket)
			}
			if closeCount := atomic.LoadInt32(&CloseCount); closeCount != 0 {
				t.Errorf("expected close count: want 0, got %v", closeCount)
			}
		}
	})

	t.Run("名称不合法", func(t *testing.T) {
		client := NewTestClient(func(req *http.Request) (*http.Response, error) {
			t.Errorf("unexpected request: %v", req.URL)
			return nil, errors.New("unexpected request")
		})
		for _, name := range []string{"", "short", "Has-Upper-Case", "has_underscore",
			strings.Repeat("a", 64)} {
			_, err := client.CreateBucket(context.Background(), name, b2.BucketTypeAllPrivate, nil)
			if !errors.Is(err, b2.ErrValidation) {
				t.Errorf("unexpected error for %q: want ErrValidation, got %v", name, err)
			}
		}
		_, err := client.CreateBucket(context.Background(), "my-test-bucket", "allPurple", nil)
		if !errors.Is(err, b2.ErrValidation) {
			t.Errorf("unexpected error: want ErrValidation, got %v", err)
		}
	})
}

func TestListBuckets(t *testing.T) {
	t.Run("正常运行", func(t *testing.T) {
		for i := 0; i < 100; i++ {
			atomic.StoreInt32(&CloseCount, 0)
			fn := func(req *http.Request) (*http.Response, error) {
				if op := Op(req); op != "b2_list_buckets" {
					t.Errorf("unexpected op: want b2_list_buckets, got %v", op)
				}
				return JsonRsp(map[string]any{
					"buckets": []map[string]any{
						{"bucketId": "bucket001", "bucketName": "alpha", "bucketType": b2.BucketTypeAllPrivate},
						{"bucketId": "bucket002", "bucketName": "beta", "bucketType": b2.BucketTypeAllPublic},
					},
				}), nil
			}
			client := NewTestClient(fn)
			buckets, err := client.ListBuckets(context.Background())
			if err != nil {
				t.Errorf("unexpected error: want nil, got %v", err)
			}
			if len(buckets) != 2 || buckets[0].BucketName != "alpha" || buckets[1].BucketName != "beta" {
				t.Errorf("unexpected buckets: got %+v", buckets)
			}
			if closeCount := atomic.LoadInt32(&CloseCount); closeCount != 0 {
				t.Errorf("expected close count: want 0, got %v", closeCount)
			}
		}
	})
}

func TestUpdateBucket(t *testing.T) {
	t.Run("正常运行", func(t *testing.T) {
		fn := func(req *http.Request) (*http.Response, error) {
			if op := Op(req); op != "b2_update_bucket" {
				t.Errorf("unexpected op: want b2_update_bucket, got %v", op)
			}
			var reqData struct {
				AccountId    string `json:"accountId"`
				BucketId     string `json:"bucketId"`
				BucketType   string `json:"bucketType"`
				IfRevisionIs int64  `json:"ifRevisionIs"`
			}
			if err := json.Unmarshal(ReadBody(req), &reqData); err != nil {
				t.Errorf("unexpected body: %v", err)
			}
			if reqData.BucketId != "bucket001" || reqData.BucketType != b2.BucketTypeAllPublic ||
				reqData.IfRevisionIs != 7 {
				t.Errorf("unexpected req data: got %+v", reqData)
			}
			return JsonRsp(map[string]any{
				"accountId":  accountId,
				"bucketId":   "bucket001",
				"bucketName": "alpha",
				"bucketType": b2.BucketTypeAllPublic,
				"revision":   8,
			}), nil
		}
		client := NewTestClient(fn)
		bucket, err := client.UpdateBucket(context.Background(), "bucket001", b2.BucketTypeAllPublic, nil, 7)
		if err != nil {
			t.Errorf("unexpected error: want nil, got %v", err)
		}
		if bucket == nil || bucket.Revision != 8 {
			t.Errorf("unexpected bucket: got %+v", bucket)
		}
	})

	t.Run("版本冲突", func(t *testing.T) {
		fn := func(req *http.Request) (*http.Response, error) {
			return ErrRsp(http.StatusConflict, "conflict", "revision mismatch"), nil
		}
		client := NewTestClient(fn)
		_, err := client.UpdateBucket(context.Background(), "bucket001", b2.BucketTypeAllPublic, nil, 7)
		if !errors.Is(err, b2.ErrHttp) {
			t.Errorf("unexpected error: want ErrHttp, got %v", err)
		}
	})
}

func TestDeleteBucket(t *testing.T) {
	t.Run("正常运行", func(t *testing.T) {
		fn := func(req *http.Request) (*http.Response, error) {
			if op := Op(req); op != "b2_delete_bucket" {
				t.Errorf("unexpected op: want b2_delete_bucket, got %v", op)
			}
			var reqData struct {
				AccountId string `json:"accountId"`
				BucketId  string `json:"bucketId"`
			}
			if err := json.Unmarshal(ReadBody(req), &reqData); err != nil {
				t.Errorf("unexpected body: %v", err)
			}
			if reqData.AccountId != accountId || reqData.BucketId != "bucket001" {
				t.Errorf("unexpected req data: got %+v", reqData)
			}
			return JsonRsp(map[string]any{"bucketId": "bucket001", "bucketName": "alpha"}), nil
		}
		client := NewTestClient(fn)
		bucket, err := client.DeleteBucket(context.Background(), "bucket001")
		if err != nil {
			t.Errorf("unexpected error: want nil, got %v", err)
		}
		if bucket == nil || bucket.BucketId != "bucket001" {
			t.Errorf("unexpected bucket: got %+v", bucket)
		}
	})

	t.Run("桶号不合法", func(t *testing.T) {
		fn := func(req *http.Request) (*http.Response, error) {
			return ErrRsp(http.StatusBadRequest, "invalid_bucket_id", "no such bucket"), nil
		}
		client := NewTestClient(fn)
		_, err := client.DeleteBucket(context.Background(), "nope")
		if !errors.Is(err, b2.ErrInvalidBucketId) {
			t.Errorf("unexpected error: want ErrInvalidBucketId, got %v", err)
		}
	})
}

func TestGetUploadUrl(t *testing.T) {
	t.Run("正常运行", func(t *testing.T) {
		fn := func(req *http.Request) (*http.Response, error) {
			if op := Op(req); op != "b2_get_upload_url" {
				t.Errorf("unexpected op: want b2_get_upload_url, got %v", op)
			}
			return JsonRsp(map[string]any{
				"bucketId":           "bucket001",
				"uploadUrl":          apiUrl + "/b2api/v2/b2_upload_file/bucket001/slot1",
				"authorizationToken": "upload-token-1",
			}), nil
		}
		client := NewTestClient(fn)
		slot, err := client.GetUploadUrl(context.Background(), "bucket001")
		if err != nil {
			t.Errorf("unexpected error: want nil, got %v", err)
		}
		if slot == nil || slot.AuthorizationToken != "upload-token-1" || len(slot.UploadUrl) <= 0 {
			t.Errorf("unexpected slot: got %+v", slot)
		}
	})
}
