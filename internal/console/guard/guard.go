// Package guard re-validates the session whenever the console navigates.
package guard

import (
	"context"
	"log"
	"strings"
	"sync"

	"libadmin/internal/console/gateway"
)

type Checker interface {
	Check(ctx context.Context) error
}

type Guard struct {
	check Checker
	ctx   context.Context
	wg    sync.WaitGroup
}

// ctx は発火したチェックの寿命
func New(ctx context.Context, check Checker) *Guard {
	return &Guard{check: check, ctx: ctx}
}

// Bootstrap は起動時のチェック。ログイン画面なら何もしない
func (g *Guard) Bootstrap(ctx context.Context, address string) error {
	if isLogin(address) {
		return nil
	}
	return g.check.Check(ctx)
}

// RouteChanged は遷移ごとのチェックを投げっぱなしで発火する。
// 失敗時の処理は gateway の 401 ハンドリングに任せる
func (g *Guard) RouteChanged(address string) {
	if isLogin(address) {
		return
	}
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		if err := g.check.Check(g.ctx); err != nil && !gateway.IsUnauthorized(err) {
			log.Printf("[WARN] session check failed: %v", err)
		}
	}()
}

// Wait は発火済みのチェックを待つ
func (g *Guard) Wait() { g.wg.Wait() }

func isLogin(address string) bool {
	p := address
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	return p == gateway.LoginPath
}
