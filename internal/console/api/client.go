// Package api is the console's typed view of the backend REST surface.
package api

import (
	"context"
	"net/url"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"libadmin/internal/console/gateway"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Transport interface {
	Get(ctx context.Context, path string) (*gateway.Envelope, error)
	Post(ctx context.Context, path string, body any) (*gateway.Envelope, error)
	Patch(ctx context.Context, path string, body any) (*gateway.Envelope, error)
	Delete(ctx context.Context, path string) (*gateway.Envelope, error)
}

type Client struct {
	t Transport
}

func New(t Transport) *Client { return &Client{t: t} }

func decode[T any](env *gateway.Envelope, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	var out T
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return &out, nil
	}
	if err := json.Unmarshal(env.Data, &out); err != nil {
		return nil, errors.Wrap(err, "decode response data")
	}
	return &out, nil
}

func discard(_ *gateway.Envelope, err error) error { return err }

func seg(s string) string { return url.PathEscape(s) }

// ===== auth =====

func (c *Client) Check(ctx context.Context) error {
	return discard(c.t.Get(ctx, "/api/auth/check"))
}

func (c *Client) Info(ctx context.Context) (*Account, error) {
	return decode[Account](c.t.Get(ctx, "/api/auth/info"))
}

type loginPayload struct {
	Token string `json:"token"`
}

// トークンの保存は gateway がやる
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	res, err := decode[loginPayload](c.t.Post(ctx, "/api/auth/login", map[string]string{"username": username, "password": password}))
	if err != nil {
		return "", err
	}
	return res.Token, nil
}

// ===== books =====

func (c *Client) ListBooks(ctx context.Context, query map[string]any, page, size int) (*Page[Book], error) {
	return decode[Page[Book]](c.t.Post(ctx, "/api/book/all", ListRequest{Query: query, Page: page, Size: size}))
}

func (c *Client) SearchBooks(ctx context.Context, keyword string) ([]Book, error) {
	res, err := decode[Page[Book]](c.t.Post(ctx, "/api/book/search", map[string]string{"keyword": keyword}))
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

func (c *Client) GetBook(ctx context.Context, isbn string) (*Book, error) {
	return decode[Book](c.t.Get(ctx, "/api/book/"+seg(isbn)))
}

func (c *Client) CreateBook(ctx context.Context, f Fields) (*Book, error) {
	return decode[Book](c.t.Post(ctx, "/api/book/add", f))
}

func (c *Client) UpdateBook(ctx context.Context, isbn string, f Fields) (*Book, error) {
	return decode[Book](c.t.Patch(ctx, "/api/book/"+seg(isbn), f))
}

func (c *Client) DelistBook(ctx context.Context, isbn string) error {
	return discard(c.t.Delete(ctx, "/api/book/"+seg(isbn)))
}

// ===== readers =====

func (c *Client) ListReaders(ctx context.Context, query map[string]any, page, size int) (*Page[Reader], error) {
	return decode[Page[Reader]](c.t.Post(ctx, "/api/reader/all", ListRequest{Query: query, Page: page, Size: size}))
}

func (c *Client) SearchReaders(ctx context.Context, keyword string) ([]Reader, error) {
	res, err := decode[Page[Reader]](c.t.Post(ctx, "/api/reader/search", map[string]string{"keyword": keyword}))
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

func (c *Client) GetReader(ctx context.Context, idCard string) (*Reader, error) {
	return decode[Reader](c.t.Get(ctx, "/api/reader/"+seg(idCard)))
}

func (c *Client) CreateReader(ctx context.Context, f Fields) (*Reader, error) {
	return decode[Reader](c.t.Post(ctx, "/api/reader/add", f))
}

func (c *Client) UpdateReader(ctx context.Context, idCard string, f Fields) (*Reader, error) {
	return decode[Reader](c.t.Patch(ctx, "/api/reader/"+seg(idCard), f))
}

func (c *Client) DeleteReader(ctx context.Context, idCard string) error {
	return discard(c.t.Delete(ctx, "/api/reader/"+seg(idCard)))
}

// ===== records =====

func (c *Client) ListRecords(ctx context.Context, query map[string]any, page, size int) (*Page[Record], error) {
	return decode[Page[Record]](c.t.Post(ctx, "/api/record/all", ListRequest{Query: query, Page: page, Size: size}))
}

func (c *Client) GetRecord(ctx context.Context, uuid string) (*Record, error) {
	return decode[Record](c.t.Get(ctx, "/api/record/"+seg(uuid)))
}

func (c *Client) Borrow(ctx context.Context, idCard, isbn string, returnDate time.Time) (*Record, error) {
	body := map[string]any{"id_card": idCard, "isbn": isbn, "return_date": returnDate.UTC()}
	return decode[Record](c.t.Post(ctx, "/api/record", body))
}

func (c *Client) Return(ctx context.Context, uuid string) error {
	return discard(c.t.Delete(ctx, "/api/record/"+seg(uuid)))
}

func (c *Client) Pay(ctx context.Context, uuid string, amount decimal.Decimal) (*Record, error) {
	return decode[Record](c.t.Post(ctx, "/api/punishment", map[string]any{"uuid": uuid, "amount": amount}))
}
