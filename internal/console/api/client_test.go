package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"libadmin/internal/console/gateway"
)

type mockTransport struct{ mock.Mock }

func (m *mockTransport) Get(ctx context.Context, path string) (*gateway.Envelope, error) {
	args := m.Called(ctx, path)
	env, _ := args.Get(0).(*gateway.Envelope)
	return env, args.Error(1)
}

func (m *mockTransport) Post(ctx context.Context, path string, body any) (*gateway.Envelope, error) {
	args := m.Called(ctx, path, body)
	env, _ := args.Get(0).(*gateway.Envelope)
	return env, args.Error(1)
}

func (m *mockTransport) Patch(ctx context.Context, path string, body any) (*gateway.Envelope, error) {
	args := m.Called(ctx, path, body)
	env, _ := args.Get(0).(*gateway.Envelope)
	return env, args.Error(1)
}

func (m *mockTransport) Delete(ctx context.Context, path string) (*gateway.Envelope, error) {
	args := m.Called(ctx, path)
	env, _ := args.Get(0).(*gateway.Envelope)
	return env, args.Error(1)
}

func envelope(data string) *gateway.Envelope { return &gateway.Envelope{Data: []byte(data)} }

func TestListRecords_DecodesPage(t *testing.T) {
	m := &mockTransport{}
	ctx := context.Background()
	query := map[string]any{"status": "delayed"}
	m.On("Post", ctx, "/api/record/all", ListRequest{Query: query, Page: 1, Size: 10}).Return(envelope(`{
		"items": [{
			"uuid": "01J",
			"reader": {"id_card": "R1", "name": "Li"},
			"book": {"isbn": "B1", "name": "Go"},
			"return_date": "2024-01-31T00:00:00Z",
			"returned": 0,
			"amount": 1.5,
			"paid": "0.5",
			"punishments": []
		}],
		"total": 1
	}`), nil)

	page, err := New(m).ListRecords(ctx, query, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.EqualValues(t, 1, page.Total)
	rec := page.Items[0]
	assert.Equal(t, "Li", rec.Reader.Name)
	assert.True(t, rec.Amount.Equal(decimal.RequireFromString("1.5")))
	assert.True(t, rec.Paid.Equal(decimal.RequireFromString("0.5")))
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), rec.ReturnDate)
	m.AssertExpectations(t)
}

func TestLogin_ReturnsToken(t *testing.T) {
	m := &mockTransport{}
	ctx := context.Background()
	m.On("Post", ctx, "/api/auth/login", map[string]string{"username": "admin", "password": "pw"}).
		Return(envelope(`{"token":"t-9"}`), nil)

	tok, err := New(m).Login(ctx, "admin", "pw")
	require.NoError(t, err)
	assert.Equal(t, "t-9", tok)
}

func TestReturn_PassesGatewayError(t *testing.T) {
	m := &mockTransport{}
	ctx := context.Background()
	gwErr := &gateway.Error{Status: http.StatusConflict, Code: "FEE_OUTSTANDING"}
	m.On("Delete", ctx, "/api/record/01J%2FX").Return(nil, gwErr)

	err := New(m).Return(ctx, "01J/X")
	assert.ErrorIs(t, err, gwErr)
}

func TestDelistBook_NullData(t *testing.T) {
	m := &mockTransport{}
	ctx := context.Background()
	m.On("Delete", ctx, "/api/book/978").Return(envelope(`null`), nil)
	require.NoError(t, New(m).DelistBook(ctx, "978"))

	m.On("Get", ctx, "/api/auth/check").Return(&gateway.Envelope{}, nil)
	require.NoError(t, New(m).Check(ctx))
}

func TestSearchBooks(t *testing.T) {
	m := &mockTransport{}
	ctx := context.Background()
	m.On("Post", ctx, "/api/book/search", map[string]string{"keyword": "go"}).
		Return(envelope(`{"items":[{"isbn":"1","name":"Go"},{"isbn":"2","name":"Golang"}]}`), nil)

	items, err := New(m).SearchBooks(ctx, "go")
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, "Golang", items[1].Name)
}
