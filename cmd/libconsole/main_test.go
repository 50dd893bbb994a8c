package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libadmin/internal/console/gateway"
	"libadmin/internal/console/session"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// backend は最低限の API を返す偽サーバ
type backend struct {
	mu      sync.Mutex
	token   string
	bodies  map[string]string
	deletes int
	record  string
}

func (b *backend) body(key string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bodies[key]
}

func (b *backend) deleteCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.deletes
}

func (b *backend) setRecord(rec string) {
	b.mu.Lock()
	b.record = rec
	b.mu.Unlock()
}

func newBackend() *backend {
	return &backend{token: "good", bodies: map[string]string{}}
}

func (b *backend) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	authed := func(h http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			b.mu.Lock()
			ok := r.Header.Get("Authorization") == "Bearer "+b.token
			b.mu.Unlock()
			if !ok {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"data":null,"code":"UNAUTHENTICATED","message":"missing token"}`))
				return
			}
			body, _ := io.ReadAll(r.Body)
			b.mu.Lock()
			b.bodies[r.Method+" "+r.URL.Path] = string(body)
			b.mu.Unlock()
			h(w, r)
		}
	}
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req["password"] != "pw" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"data":null,"code":"INVALID_ARGUMENT","message":"bad credential"}`))
			return
		}
		_, _ = w.Write([]byte(`{"data":{"token":"good"}}`))
	})
	mux.HandleFunc("/api/auth/check", authed(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":"admin"}`))
	}))
	mux.HandleFunc("/api/book/all", authed(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"items":[{"isbn":"9787111544937","name":"The Go Programming Language","author":"Donovan","publisher":"AW","count":2}],"total":1}}`))
	}))
	mux.HandleFunc("/api/reader/search", authed(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"items":[{"id_card":"R1","name":"Li Lei"}]}}`))
	}))
	mux.HandleFunc("/api/book/search", authed(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"items":[{"isbn":"B1","name":"Go","count":1}]}}`))
	}))
	mux.HandleFunc("/api/record", authed(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"uuid":"01JNEW","reader":{"id_card":"R1","name":"Li Lei"},"book":{"isbn":"B1","name":"Go"},"return_date":"2030-01-01T00:00:00Z","returned":0,"amount":0,"paid":0,"punishments":[]}}`))
	}))
	mux.HandleFunc("/api/record/", authed(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			b.mu.Lock()
			b.deletes++
			b.mu.Unlock()
			_, _ = w.Write([]byte(`{"data":null,"message":"book returned"}`))
			return
		}
		b.mu.Lock()
		rec := b.record
		b.mu.Unlock()
		_, _ = w.Write([]byte(`{"data":` + rec + `}`))
	}))
	return mux
}

type harness struct {
	srv    *httptest.Server
	be     *backend
	state  string
	stdout *syncBuffer
	stderr *syncBuffer
}

func newHarness(t *testing.T) *harness {
	be := newBackend()
	srv := httptest.NewServer(be.handler(t))
	t.Cleanup(srv.Close)
	return &harness{srv: srv, be: be, state: filepath.Join(t.TempDir(), "state.yaml")}
}

func (h *harness) run(t *testing.T, stdin string, args ...string) error {
	h.stdout, h.stderr = &syncBuffer{}, &syncBuffer{}
	return run(context.Background(), args, env{
		stdin:     strings.NewReader(stdin),
		stdout:    h.stdout,
		stderr:    h.stderr,
		statePath: h.state,
		server:    h.srv.URL,
		now:       func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) },
	})
}

func (h *harness) saved(t *testing.T) *session.File {
	f, err := session.OpenFile(h.state)
	require.NoError(t, err)
	return f
}

func TestBooks_FilterWritesAddress(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run(t, "", "login", "-u", "admin", "-p", "pw"))

	require.NoError(t, h.run(t, "", "books", "-filter", "name=Go", "-size", "20"))
	assert.Contains(t, h.stdout.String(), "The Go Programming Language")
	assert.Contains(t, h.stdout.String(), "page 1/1  size 20  total 1")
	assert.Equal(t, "/books?name=Go&page=1&size=20", h.saved(t).Address())

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(h.be.body("POST /api/book/all")), &body))
	assert.Equal(t, map[string]any{"name": "Go"}, body["query"])
	assert.EqualValues(t, 1, body["page"])
	assert.EqualValues(t, 20, body["size"])

	// 住所から条件を読み直してページだけ進める
	require.NoError(t, h.run(t, "", "books", "-page", "2"))
	assert.Equal(t, "/books?name=Go&page=2&size=20", h.saved(t).Address())

	require.NoError(t, h.run(t, "", "books", "-clear"))
	assert.Equal(t, "/books?page=2&size=20", h.saved(t).Address())
}

func TestExpiredSession_RedirectsAndReturns(t *testing.T) {
	h := newHarness(t)
	f := h.saved(t)
	require.NoError(t, f.Set("stale"))
	require.NoError(t, f.SetAddress("/borrowing_records?status=delayed&page=1&size=10"))

	err := h.run(t, "", "records")
	require.Error(t, err)
	assert.True(t, gateway.IsUnauthorized(err))
	assert.Equal(t, "", reportable(err))

	addr := h.saved(t).Address()
	assert.True(t, strings.HasPrefix(addr, gateway.LoginPath+"?redirect="))
	back, err := gateway.DecodeRedirect(addr)
	require.NoError(t, err)
	assert.Equal(t, "/borrowing_records?status=delayed&page=1&size=10", back)

	err = h.run(t, "", "login", "-u", "admin", "-p", "nope")
	require.Error(t, err)
	assert.Contains(t, h.stderr.String(), "error: bad credential")

	require.NoError(t, h.run(t, "", "login", "-u", "admin", "-p", "pw"))
	assert.Contains(t, h.stdout.String(), "back to /borrowing_records?status=delayed&page=1&size=10")
	saved := h.saved(t)
	assert.Equal(t, back, saved.Address())
	tok, _ := saved.Get()
	assert.Equal(t, "good", tok)
}

func TestReturn_BlockedWhileFeeOutstanding(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run(t, "", "login", "-u", "admin", "-p", "pw"))
	h.be.setRecord(`{"uuid":"01JA","reader":{"id_card":"R1","name":"Li"},"book":{"isbn":"B1","name":"Go"},"return_date":"2026-03-01T00:00:00Z","returned":0,"amount":4.5,"paid":1,"punishments":[]}`)

	err := h.run(t, "", "return", "01JA")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "late fee outstanding: 3.50")
	assert.Zero(t, h.be.deleteCount())

	h.be.setRecord(`{"uuid":"01JA","reader":{"id_card":"R1","name":"Li"},"book":{"isbn":"B1","name":"Go"},"return_date":"2026-03-01T00:00:00Z","returned":0,"amount":4.5,"paid":4.5,"punishments":[]}`)
	require.NoError(t, h.run(t, "", "return", "01JA"))
	assert.Equal(t, 1, h.be.deleteCount())
	assert.Contains(t, h.stderr.String(), "info: book returned")
}

func TestBorrow_Typeahead(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run(t, "", "login", "-u", "admin", "-p", "pw"))

	err := h.run(t, "#1\n#1\n", "borrow", "-reader", "li", "-book", "go", "-delay", "1ms", "-due", "2030-01-01")
	require.NoError(t, err)
	out := h.stdout.String()
	assert.Contains(t, out, "#1  R1  Li Lei")
	assert.Contains(t, out, "#1  B1  Go  (stock 1)")
	assert.Contains(t, out, "01JNEW")

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(h.be.body("POST /api/record")), &body))
	assert.Equal(t, "R1", body["id_card"])
	assert.Equal(t, "B1", body["isbn"])
	assert.Equal(t, "/borrowing_records/detail?uuid=01JNEW", h.saved(t).Address())
}

func TestFormValues(t *testing.T) {
	got, err := formValues(screenFor("records"), map[string]string{
		"return_date": "2024-01-01T00:00:00Z..2024-01-31T00:00:00Z",
		"status":      "delayed",
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01T00:00:00.000Z__2024-01-31T00:00:00.000Z", got["return_date"])
	assert.Equal(t, "delayed", got["status"])

	_, err = formValues(screenFor("books"), map[string]string{"color": "red"})
	assert.Error(t, err)
}

func TestFields(t *testing.T) {
	f, err := fields([]string{"name=Go", "count=3", "publish_date=2015-10-26"}, bookTypes)
	require.NoError(t, err)
	assert.Equal(t, "Go", f["name"])
	assert.Equal(t, int64(3), f["count"])
	assert.Equal(t, time.Date(2015, 10, 26, 0, 0, 0, 0, time.UTC), f["publish_date"])

	f, err = fields([]string{"gender=female"}, readerTypes)
	require.NoError(t, err)
	assert.Equal(t, 1, f["gender"])

	_, err = fields([]string{"count=x"}, bookTypes)
	assert.Error(t, err)
}
