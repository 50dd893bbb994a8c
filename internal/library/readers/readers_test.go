package readers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	mysql "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"libadmin/internal/platform/httpx"
)

type mockStore struct{ mock.Mock }

func (m *mockStore) List(ctx context.Context, q ReaderQuery, p httpx.Page) ([]Reader, int64, error) {
	args := m.Called(q, p)
	return args.Get(0).([]Reader), args.Get(1).(int64), args.Error(2)
}

func (m *mockStore) Search(ctx context.Context, idPrefix, keyword string) ([]Reader, error) {
	args := m.Called(idPrefix, keyword)
	return args.Get(0).([]Reader), args.Error(1)
}

func (m *mockStore) Get(ctx context.Context, idCard string) (*Reader, error) {
	args := m.Called(idCard)
	r, _ := args.Get(0).(*Reader)
	return r, args.Error(1)
}

func (m *mockStore) Insert(ctx context.Context, in CreateReaderRequest) (bool, error) {
	args := m.Called(in)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) Update(ctx context.Context, idCard string, in UpdateReaderRequest) error {
	return m.Called(idCard, in).Error(0)
}

func (m *mockStore) Deactivate(ctx context.Context, idCard string) error {
	return m.Called(idCard).Error(0)
}

func (m *mockStore) CountUnreturned(ctx context.Context, idCard string) (int64, error) {
	args := m.Called(idCard)
	return args.Get(0).(int64), args.Error(1)
}

func intPtr(v int) *int { return &v }

func givenRouter(store ReaderStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r.Group("/api"), NewServiceWithStore(store))
	return r
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateDefaultsGenderAndNormalizesIDCard(t *testing.T) {
	store := new(mockStore)
	expected := CreateReaderRequest{IDCard: "11010519900307123X", Name: "张三", Gender: intPtr(GenderMale)}
	store.On("Insert", expected).Return(false, nil)
	store.On("Get", "11010519900307123X").Return(&Reader{IDCard: "11010519900307123X", Name: "张三"}, nil)

	r, err := NewServiceWithStore(store).Create(context.Background(), CreateReaderRequest{IDCard: "11010519900307123x", Name: " 张三 "})
	require.NoError(t, err)
	assert.Equal(t, "11010519900307123X", r.IDCard)

	store.AssertExpectations(t)
}

func TestCreateDuplicateIsConflict(t *testing.T) {
	store := new(mockStore)
	store.On("Insert", mock.Anything).Return(false, &mysql.MySQLError{Number: 1062})

	_, err := NewServiceWithStore(store).Create(context.Background(), CreateReaderRequest{IDCard: "1", Name: "n"})
	assert.Equal(t, http.StatusConflict, httpx.ToHTTPStatus(err))

	store.AssertExpectations(t)
}

func TestCreateRejectsBadGender(t *testing.T) {
	store := new(mockStore)

	_, err := NewServiceWithStore(store).Create(context.Background(), CreateReaderRequest{IDCard: "1", Name: "n", Gender: intPtr(2)})
	assert.Equal(t, http.StatusBadRequest, httpx.ToHTTPStatus(err))

	store.AssertNotCalled(t, "Insert", mock.Anything)
}

func TestDeleteBlockedWhileBorrowing(t *testing.T) {
	store := new(mockStore)
	store.On("CountUnreturned", "1").Return(int64(2), nil)

	err := NewServiceWithStore(store).Delete(context.Background(), "1")
	assert.Equal(t, http.StatusConflict, httpx.ToHTTPStatus(err))

	store.AssertNotCalled(t, "Deactivate", mock.Anything)
}

func TestDeleteMissingReader(t *testing.T) {
	store := new(mockStore)
	store.On("CountUnreturned", "1").Return(int64(0), nil)
	store.On("Deactivate", "1").Return(sql.ErrNoRows)

	err := NewServiceWithStore(store).Delete(context.Background(), "1")
	assert.Equal(t, http.StatusNotFound, httpx.ToHTTPStatus(err))
}

func TestListHandlerPassesFiltersAndPage(t *testing.T) {
	store := new(mockStore)
	store.On("List", ReaderQuery{Name: "Foo", IDCard: "123X"}, httpx.Page{Page: 2, Size: 20}).
		Return([]Reader{{IDCard: "123X", Name: "Foo"}}, int64(21), nil)
	r := givenRouter(store)

	w := doJSON(r, http.MethodPost, "/api/reader/all", map[string]any{
		"query": map[string]any{"name": "Foo", "id_card": "123x"},
		"page":  2,
		"size":  20,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data httpx.ListPayload[Reader] `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, int64(21), body.Data.Total)
	store.AssertExpectations(t)
}

func TestGetHandlerNotFound(t *testing.T) {
	store := new(mockStore)
	store.On("Get", "404").Return(nil, sql.ErrNoRows)
	r := givenRouter(store)

	w := doJSON(r, http.MethodGet, "/api/reader/404", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "reader not found")
}

func TestSearchHandler(t *testing.T) {
	store := new(mockStore)
	store.On("Search", "ZHANG", "zhang").Return([]Reader{{IDCard: "1", Name: "Zhang"}}, nil)
	r := givenRouter(store)

	w := doJSON(r, http.MethodPost, "/api/reader/search", httpx.SearchRequest{Keyword: "Zhang"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"items"`)
	store.AssertExpectations(t)
}
