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

import "io"

// Progress 一次传输的进度信息。
type Progress struct {
	// Loaded 已传输的字节数。
	Loaded int64
	// Total 总字节数。未知时为 0。
	Total int64
	// LengthComputable 总字节数是否已知。
	LengthComputable bool
}

// Fraction 获取 [0, 1] 区间内的进度。总字节数未知时为 0。
func (p Progress) Fraction() float64 {
	if !p.LengthComputable || p.Total <= 0 {
		return 0
	}
	f := float64(p.Loaded) / float64(p.Total)
	if f > 1 {
		return 1
	}
	return f
}

// Percent 获取 [0, 100] 区间内的进度百分比。
func (p Progress) Percent() float64 {
	return p.Fraction() * 100
}

// progressReader 包装读取流，读取时上报进度。
type progressReader struct {
	r      io.Reader
	total  int64
	loaded int64
	fn     func(Progress)
	debug  bool
}

// 包装读取流。fn 为空时原样返回。total 未知时传 0。
func newProgressReader(r io.Reader, total int64, debug bool, fn func(Progress)) io.Reader {
	if fn == nil {
		return r
	}
	return &progressReader{r: r, total: total, fn: fn, debug: debug}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.loaded += int64(n)
		loaded := p.loaded
		safeCall(p.debug, func() {
			p.fn(Progress{Loaded: loaded, Total: p.total, LengthComputable: p.total > 0})
		})
	}
	return n, err
}

// progressReadCloser 包装响应体，读取时上报下载进度。
type progressReadCloser struct {
	progressReader
	c io.Closer
}

// 包装响应体。fn 为空时原样返回。
func newProgressReadCloser(rc io.ReadCloser, total int64, debug bool, fn func(Progress)) io.ReadCloser {
	if fn == nil {
		return rc
	}
	return &progressReadCloser{progressReader{r: rc, total: total, fn: fn, debug: debug}, rc}
}

func (p *progressReadCloser) Close() error {
	return p.c.Close()
}
