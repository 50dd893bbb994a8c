// Package gateway is the single path every console call to the backend takes.
// It attaches the stored credential, unwraps the response envelope and reacts
// to authentication failure by sending the user to the login screen.
package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"libadmin/internal/console/session"
)

const (
	LoginPath = "/user/login"
	// 全リクエスト共通のタイムアウト
	DefaultTimeout = time.Hour
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Navigator は現在地（pathname+search+hash）と遷移を提供する
type Navigator interface {
	Location() string
	Push(address string)
}

type Notifier interface {
	Info(msg string)
	Error(msg string)
}

type Envelope struct {
	Data    jsoniter.RawMessage `json:"data"`
	Code    string              `json:"code,omitempty"`
	Message string              `json:"message,omitempty"`
}

// Error は 2xx 以外の応答。通信自体の失敗は Status 0
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return fmt.Sprintf("request failed with status %d: %s", e.Status, e.Message)
}

func IsUnauthorized(err error) bool {
	var ge *Error
	return errors.As(err, &ge) && ge.Status == http.StatusUnauthorized
}

type Gateway struct {
	base   string
	doer   Doer
	store  session.Store
	nav    Navigator
	notify Notifier
}

type Option func(*Gateway)

func WithDoer(d Doer) Option { return func(g *Gateway) { g.doer = d } }

func New(base string, store session.Store, nav Navigator, notify Notifier, opts ...Option) *Gateway {
	g := &Gateway{
		base:   strings.TrimRight(base, "/"),
		doer:   &http.Client{Timeout: DefaultTimeout},
		store:  store,
		nav:    nav,
		notify: notify,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

func (g *Gateway) Get(ctx context.Context, path string) (*Envelope, error) {
	return g.Do(ctx, http.MethodGet, path, nil)
}

func (g *Gateway) Post(ctx context.Context, path string, body any) (*Envelope, error) {
	return g.Do(ctx, http.MethodPost, path, body)
}

func (g *Gateway) Patch(ctx context.Context, path string, body any) (*Envelope, error) {
	return g.Do(ctx, http.MethodPatch, path, body)
}

func (g *Gateway) Delete(ctx context.Context, path string) (*Envelope, error) {
	return g.Do(ctx, http.MethodDelete, path, nil)
}

// Do は1回だけ送る。リトライはしない
func (g *Gateway) Do(ctx context.Context, method, path string, body any) (*Envelope, error) {
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "encode request body")
		}
		rd = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, g.base+path, rd)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	// トークンが無くてもヘッダは付ける
	token, _ := g.store.Get()
	req.Header.Set("Authorization", "Bearer "+token)

	res, err := g.doer.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", method, path)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "read response of %s %s", method, path)
	}
	env := &Envelope{}
	decodeErr := json.Unmarshal(raw, env)

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, g.failure(res.StatusCode, env)
	}
	if decodeErr != nil && len(bytes.TrimSpace(raw)) > 0 {
		return nil, errors.Wrapf(decodeErr, "decode response of %s %s", method, path)
	}
	if err := g.success(env); err != nil {
		return env, err
	}
	return env, nil
}

func (g *Gateway) success(env *Envelope) error {
	if msg, ok := stringData(env.Data); ok && msg != "" {
		g.notify.Info(msg)
	}
	if env.Message != "" {
		g.notify.Info(env.Message)
	}
	if tok := tokenData(env.Data); tok != "" {
		if err := g.store.Set(tok); err != nil {
			return errors.Wrap(err, "persist session token")
		}
	}
	return nil
}

func (g *Gateway) failure(status int, env *Envelope) error {
	if status == http.StatusUnauthorized {
		loc := g.nav.Location()
		if pathname(loc) != LoginPath {
			g.nav.Push(LoginRedirect(loc))
		}
	} else if env.Message != "" {
		g.notify.Error(env.Message)
	}
	return &Error{Status: status, Code: env.Code, Message: env.Message}
}

func stringData(raw jsoniter.RawMessage) (string, bool) {
	if len(raw) == 0 || raw[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func tokenData(raw jsoniter.RawMessage) string {
	if len(raw) == 0 || raw[0] != '{' {
		return ""
	}
	return json.Get(raw, "token").ToString()
}

// LoginRedirect は現在地を base64 にして redirect パラメータに載せる
func LoginRedirect(location string) string {
	q := url.Values{"redirect": {base64.StdEncoding.EncodeToString([]byte(location))}}
	return LoginPath + "?" + q.Encode()
}

// DecodeRedirect はログイン画面の住所から戻り先を取り出す。無ければ ""
func DecodeRedirect(address string) (string, error) {
	u, err := url.Parse(address)
	if err != nil {
		return "", errors.Wrap(err, "parse address")
	}
	enc := u.Query().Get("redirect")
	if enc == "" {
		return "", nil
	}
	dec, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return "", errors.Wrap(err, "decode redirect")
	}
	return string(dec), nil
}

func pathname(location string) string {
	if i := strings.IndexAny(location, "?#"); i >= 0 {
		return location[:i]
	}
	return location
}
