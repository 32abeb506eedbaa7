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

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
)

// 接口路径。除鉴权外都相对于会话中的 apiUrl。
const (
	apiPathPrefix = "/b2api/v2/"

	opCreateBucket             = "b2_create_bucket"
	opDeleteBucket             = "b2_delete_bucket"
	opListBuckets              = "b2_list_buckets"
	opUpdateBucket             = "b2_update_bucket"
	opGetUploadUrl             = "b2_get_upload_url"
	opListFileNames            = "b2_list_file_names"
	opListFileVersions         = "b2_list_file_versions"
	opGetFileInfo              = "b2_get_file_info"
	opDeleteFileVersion        = "b2_delete_file_version"
	opHideFile                 = "b2_hide_file"
	opGetDownloadAuthorization = "b2_get_download_authorization"
	opDownloadFileById         = "b2_download_file_by_id"
	opStartLargeFile           = "b2_start_large_file"
	opGetUploadPartUrl         = "b2_get_upload_part_url"
	opFinishLargeFile          = "b2_finish_large_file"
	opCancelLargeFile          = "b2_cancel_large_file"
	opListParts                = "b2_list_parts"
	opListUnfinishedLargeFiles = "b2_list_unfinished_large_files"
	opCreateKey                = "b2_create_key"
	opDeleteKey                = "b2_delete_key"
	opListKeys                 = "b2_list_keys"
)

// BucketTypeAllPrivate 私有存储桶。BucketTypeAllPublic 公开存储桶。
const (
	BucketTypeAllPrivate = "allPrivate"
	BucketTypeAllPublic  = "allPublic"
)

// 文件记录上的动作标记。
const (
	ActionUpload = "upload"
	ActionHide   = "hide"
	ActionStart  = "start"
	ActionFolder = "folder"
)

// ContentTypeAuto 让服务端根据文件名推断内容类型。
const ContentTypeAuto = "b2/x-auto"

// 应用密钥的权限名称。
const (
	CapListBuckets   = "listBuckets"
	CapWriteBuckets  = "writeBuckets"
	CapDeleteBuckets = "deleteBuckets"
	CapListFiles     = "listFiles"
	CapReadFiles     = "readFiles"
	CapWriteFiles    = "writeFiles"
	CapDeleteFiles   = "deleteFiles"
	CapShareFiles    = "shareFiles"
	CapListKeys      = "listKeys"
	CapWriteKeys     = "writeKeys"
	CapDeleteKeys    = "deleteKeys"
)

// 协议限制。
const (
	maxFileNameLength          = 1024
	maxPartNumber              = 10000
	maxPartSize                = int64(5) * 1024 * 1024 * 1024
	defaultMinPartSize         = int64(5) * 1024 * 1024
	defaultRecommendedPartSize = int64(100) * 1024 * 1024
	maxKeyNameLength           = 100
	maxValidDuration           = 604800
	maxFileInfoEntries         = 10
)

var requestPool = sync.Pool{New: func() any {
	return &http.Request{
		ProtoMajor: 1,
		ProtoMinor: 1,
	}
}}

// 获取请求体。
func getRequest() *http.Request {
	return requestPool.Get().(*http.Request)
}

// 回收请求体。
func rollbackRequest(req *http.Request) {
	if req != nil {
		req.Method = ""
		req.URL = nil
		req.Proto = ""
		req.Header = nil
		req.Body = nil
		req.GetBody = nil
		req.TransferEncoding = nil
		req.Close = false
		req.Form = nil
		req.PostForm = nil
		req.MultipartForm = nil
		req.Trailer = nil
		req.RemoteAddr = ""
		req.RequestURI = ""
		req.TLS = nil
		req.Cancel = nil
		req.Response = nil
		req.Pattern = ""
		requestPool.Put(req)
	}
}

// 读取响应体并关闭。
func readAndClose(rsp *http.Response) []byte {
	if rsp != nil && rsp.Body != nil {
		bs, err := io.ReadAll(rsp.Body)
		printError(err)
		closeRsp(rsp)
		return bs
	}
	return nil
}

// 关闭流。
func closeIO(closer io.Closer) {
	if closer != nil {
		printError(closer.Close())
	}
}

// 关闭 HTTP 响应对象的响应体。
func closeRsp(r *http.Response) {
	if r != nil && r.Body != nil {
		printError(r.Body.Close())
	}
}

// URL 编码文件名。保留路径分隔符 /，其余非保留字符按 UTF-8 字节百分号编码。
func urlEncode(s string) string {
	return percentEncode(s, true)
}

// URL 编码请求头的值。路径分隔符也编码。
func urlEncodeValue(s string) string {
	return percentEncode(s, false)
}

func percentEncode(s string, keepSlash bool) string {
	var b bytes.Buffer
	written := 0
	for i, n := 0, len(s); i < n; i++ {
		ch := s[i]
		switch {
		case 'a' <= ch && ch <= 'z', 'A' <= ch && ch <= 'Z', '0' <= ch && ch <= '9':
			continue
		case ch == '-' || ch == '_' || ch == '.' || ch == '~':
			continue
		case ch == '/' && keepSlash:
			continue
		}
		b.WriteString(s[written:i])
		_, _ = fmt.Fprintf(&b, "%%%02X", ch)
		written = i + 1
	}

	if written == 0 {
		return s
	}
	b.WriteString(s[written:])
	return b.String()
}

// 计算字节数据的 SHA-1 十六进制小写串。
func sha1Hex(data []byte) string {
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:])
}

// 向标准错误输出流打印错误信息。
func printError(err error) {
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "backblaze-b2-object-api: %v\n", err)
	}
}

// 调用用户回调，捕获恐慌，避免破坏调用流程。
func safeCall(debug bool, fn func()) {
	defer func() {
		if p := recover(); p != nil && debug {
			_, _ = fmt.Fprintf(os.Stderr, "backblaze-b2-object-api: callback panic: %v\n", p)
		}
	}()
	fn()
}

// 校验文件名。1 到 1024 字节，不含 C0 控制字节，不以 / 开头。
func checkFileName(fileName string) error {
	if len(fileName) <= 0 {
		return newValidationError("fileName is empty")
	}
	if len(fileName) > maxFileNameLength {
		return newValidationError("fileName is longer than %d bytes", maxFileNameLength)
	}
	if fileName[0] == '/' {
		return newValidationError("fileName must not start with /")
	}
	for i := 0; i < len(fileName); i++ {
		if fileName[i] < 0x20 {
			return newValidationError("fileName contains control byte %#x", fileName[i])
		}
	}
	return nil
}

// 校验分片序号。1 到 10000。
func checkPartNumber(partNumber int64) error {
	if partNumber < 1 || partNumber > maxPartNumber {
		return newValidationError("partNumber %d is out of range [1, %d]", partNumber, maxPartNumber)
	}
	return nil
}

// 校验分片大小。不超过 5GiB。
func checkPartSize(size int64) error {
	if size <= 0 {
		return newValidationError("part size %d is invalid", size)
	}
	if size > maxPartSize {
		return newValidationError("part size %d is larger than %d", size, maxPartSize)
	}
	return nil
}

// 校验 SHA-1 校验和。40 个十六进制小写字符。
func checkSha1(sum string) error {
	if len(sum) != 40 {
		return newValidationError("contentSha1 %q is not a valid sha1 checksum", sum)
	}
	for i := 0; i < len(sum); i++ {
		ch := sum[i]
		switch {
		case '0' <= ch && ch <= '9', 'a' <= ch && ch <= 'f':
		default:
			return newValidationError("contentSha1 %q is not a valid sha1 checksum", sum)
		}
	}
	return nil
}

// 校验密钥名称。1 到 100 个字符，仅含字母、数字和 ._-。
func checkKeyName(keyName string) error {
	if len(keyName) <= 0 || len(keyName) > maxKeyNameLength {
		return newValidationError("keyName length is out of range [1, %d]", maxKeyNameLength)
	}
	for i := 0; i < len(keyName); i++ {
		ch := keyName[i]
		switch {
		case 'a' <= ch && ch <= 'z', 'A' <= ch && ch <= 'Z', '0' <= ch && ch <= '9':
		case ch == '.' || ch == '_' || ch == '-':
		default:
			return newValidationError("keyName contains invalid character %q", ch)
		}
	}
	return nil
}

// 校验授权有效时长。1 到 604800 秒。
func checkValidDuration(seconds int64) error {
	if seconds < 1 || seconds > maxValidDuration {
		return newValidationError("validDurationInSeconds %d is out of range [1, %d]", seconds, maxValidDuration)
	}
	return nil
}

// 校验存储桶名称。6 到 63 个字符，仅含小写字母、数字和连字符。
func checkBucketName(bucketName string) error {
	if len(bucketName) < 6 || len(bucketName) > 63 {
		return newValidationError("bucketName length is out of range [6, 63]")
	}
	for i := 0; i < len(bucketName); i++ {
		ch := bucketName[i]
		switch {
		case 'a' <= ch && ch <= 'z', '0' <= ch && ch <= '9', ch == '-':
		default:
			return newValidationError("bucketName contains invalid character %q", ch)
		}
	}
	return nil
}

// 校验存储桶类型。
func checkBucketType(bucketType string) error {
	if bucketType != BucketTypeAllPrivate && bucketType != BucketTypeAllPublic {
		return newValidationError("bucketType %q is invalid", bucketType)
	}
	return nil
}

// 校验文件附加信息。最多 10 组。
func checkFileInfo(info map[string]string) error {
	if len(info) > maxFileInfoEntries {
		return newValidationError("file info has more than %d entries", maxFileInfoEntries)
	}
	for k := range info {
		if len(k) <= 0 {
			return newValidationError("file info key is empty")
		}
	}
	return nil
}

// 校验非空字符串字段。
func checkNotEmpty(field, value string) error {
	if len(strings.TrimSpace(value)) <= 0 {
		return newValidationError("%s is empty", field)
	}
	return nil
}

// 获取分片大小。受会话中服务端给出的界限约束。
func getPartSize(s *Session) int64 {
	partSize := PartSize
	if partSize <= 0 {
		if s != nil && s.RecommendedPartSize > 0 {
			partSize = s.RecommendedPartSize
		} else {
			partSize = defaultRecommendedPartSize
		}
	}
	minSize := defaultMinPartSize
	if s != nil && s.AbsoluteMinimumPartSize > 0 {
		minSize = s.AbsoluteMinimumPartSize
	}
	if partSize < minSize {
		return minSize
	}
	if partSize > maxPartSize {
		return maxPartSize
	}
	return partSize
}

// 判断文件大小是否用分片模式传输。超过分片大小或 5GiB 时启用。
func useMultipart(s *Session, size int64) bool {
	return size > getPartSize(s) || size > maxPartSize
}

// 计算本次上传的分片大小。保证分片总数不超过 10000。
func partSizeFor(s *Session, contentLength int64) int64 {
	partSize := getPartSize(s)
	if contentLength > 0 {
		if n := (contentLength + maxPartNumber - 1) / maxPartNumber; n > partSize {
			partSize = n
		}
	}
	if partSize > maxPartSize {
		partSize = maxPartSize
	}
	return partSize
}
