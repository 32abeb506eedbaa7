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
	"context"
	"errors"
	"math/rand"
	"time"
)

type retryPolicy struct {
	retries    int
	baseDelay  time.Duration
	multiplier float64
	maxDelay   time.Duration
	predicate  func(err error, attempt int) bool
	onRetry    func(err error, attempt int, delay time.Duration)
	debug      bool
}

// 从客户端参数生成重试策略。
func (o *options) newRetryPolicy() *retryPolicy {
	p := &retryPolicy{
		retries:    DefaultRetries,
		baseDelay:  DefaultRetryDelay,
		multiplier: DefaultRetryMultiplier,
		maxDelay:   DefaultMaxRetryDelay,
		onRetry:    o.onRetry,
		debug:      o.debug,
	}
	if o.retriesSet {
		p.retries = o.retries
	}
	if o.retryDelay > 0 {
		p.baseDelay = o.retryDelay
	}
	if o.retryMultiplier > 0 {
		p.multiplier = o.retryMultiplier
	}
	if o.maxRetryDelay > 0 {
		p.maxDelay = o.maxRetryDelay
	}
	return p
}

// doRetry 以重试策略运行 fn，重试次数耗尽后返回最后一次的错误。
//
// 取消信号触发时立即结束延迟，不再发起下一次请求。
func doRetry(ctx context.Context, p *retryPolicy, fn func(ctx context.Context) error) error {
	attempt := 0
	for {
		// 取消后不再发起请求。
		select {
		case <-ctx.Done():
			return newError(ErrCancelled, 0, "", ctx.Err().Error())
		default:
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrCancelled) || ctx.Err() != nil {
			return annotateRetry(err, attempt, false)
		}

		retryable := p.shouldRetry(err, attempt)
		if !retryable || attempt >= p.retries {
			return annotateRetry(err, attempt, retryable && attempt >= p.retries)
		}

		delay := p.delayFor(attempt)
		if ra := retryAfterOf(err); ra > delay { // 服务端给出的延迟下限优先。
			delay = ra
		}
		if p.onRetry != nil {
			safeCall(p.debug, func() { p.onRetry(err, attempt, delay) })
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return newError(ErrCancelled, 0, "", ctx.Err().Error())
		case <-timer.C:
		}
		attempt++
	}
}

// 判断错误是否需要重试。attempt 从 0 开始计。
func (p *retryPolicy) shouldRetry(err error, attempt int) bool {
	if p.predicate != nil {
		return p.predicate(err, attempt)
	}
	return retryableError(err)
}

// 计算第 attempt 次失败后的延迟。指数退避，封顶后附加 [0.75, 1.25] 的随机抖动。
func (p *retryPolicy) delayFor(attempt int) time.Duration {
	delay := float64(p.baseDelay)
	for i := 0; i < attempt; i++ {
		delay *= p.multiplier
		if delay >= float64(p.maxDelay) {
			break
		}
	}
	if delay > float64(p.maxDelay) {
		delay = float64(p.maxDelay)
	}
	delay *= 0.75 + rand.Float64()*0.5
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}
