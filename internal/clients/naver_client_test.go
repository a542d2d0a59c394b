package clients

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spacesedan/reviewflow/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const naverPayload = `{
  "lastBuildDate": "Mon, 01 Jan 2024 10:00:00 +0900",
  "total": 1234,
  "start": 1,
  "display": 2,
  "items": [
    {"title": "<b>WidgetX</b> review", "link": "https://blog.example.com/1", "description": "&quot;solid&quot; build", "bloggername": "kim", "bloggerlink": "https://blog.example.com", "postdate": "20240101"},
    {"title": "second", "link": "https://blog.example.com/2", "description": "meh", "bloggername": "lee", "bloggerlink": "https://blog.example.com", "postdate": "20231231"}
  ]
}`

func TestSearchBlog_SendsQueryAndCredentials(t *testing.T) {
	var gotReq *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReq = r.Clone(context.Background())
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(naverPayload))
	}))
	defer srv.Close()

	c := NewNaverClient("id-123", "secret-456", srv.URL+"/v1/search/blog", time.Second)
	res, err := c.SearchBlog(context.Background(), BlogSearchRequest{
		Query: "위젯 X",
		Count: 30,
		Start: 2,
		Sort:  models.SortBySimilarity,
	})
	require.NoError(t, err)

	require.NotNil(t, gotReq)
	assert.Equal(t, "/v1/search/blog", gotReq.URL.Path)
	assert.Equal(t, "id-123", gotReq.Header.Get("X-Naver-Client-Id"))
	assert.Equal(t, "secret-456", gotReq.Header.Get("X-Naver-Client-Secret"))
	assert.Equal(t, "위젯 X", gotReq.URL.Query().Get("query"))
	assert.Equal(t, "30", gotReq.URL.Query().Get("display"))
	assert.Equal(t, "2", gotReq.URL.Query().Get("start"))
	assert.Equal(t, "sim", gotReq.URL.Query().Get("sort"))
	assert.Contains(t, gotReq.URL.RawQuery, "%20")
	assert.False(t, strings.Contains(gotReq.URL.RawQuery, "+"))

	assert.Equal(t, 1234, res.Total)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "<b>WidgetX</b> review", res.Items[0].Title)
	assert.Equal(t, "kim", res.Items[0].BloggerName)
	assert.Equal(t, "20240101", res.Items[0].PostDate)
}

func TestSearchBlog_MissingCredentialsSkipsCall(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	for _, c := range []*NaverClient{
		NewNaverClient("", "secret", srv.URL, time.Second),
		NewNaverClient("id", " ", srv.URL, time.Second),
	} {
		_, err := c.SearchBlog(context.Background(), BlogSearchRequest{Query: "WidgetX"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMissingCredential))
	}
	assert.Zero(t, calls.Load())
}

func TestSearchBlog_NonOKStatusIsTransportFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"errorMessage":"boom"}`))
	}))
	defer srv.Close()

	c := NewNaverClient("id", "secret", srv.URL, time.Second)
	_, err := c.SearchBlog(context.Background(), BlogSearchRequest{Query: "WidgetX"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransport))
	assert.Equal(t, int32(1), calls.Load(), "no automatic retry")
}

func TestSearchBlog_TimeoutIsTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewNaverClient("id", "secret", srv.URL, 20*time.Millisecond)
	_, err := c.SearchBlog(context.Background(), BlogSearchRequest{Query: "WidgetX"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransport))
}

func TestSearchBlog_BadJSONIsDecodeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"total": "lots",`))
	}))
	defer srv.Close()

	c := NewNaverClient("id", "secret", srv.URL, time.Second)
	_, err := c.SearchBlog(context.Background(), BlogSearchRequest{Query: "WidgetX"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDecode))
}

func TestSearchBlog_EmptyQuery(t *testing.T) {
	c := NewNaverClient("id", "secret", "http://127.0.0.1:1", time.Second)
	_, err := c.SearchBlog(context.Background(), BlogSearchRequest{Query: "   "})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrTransport))
}

func TestBlogSearchRequest_Bounds(t *testing.T) {
	tests := []struct {
		in   BlogSearchRequest
		want BlogSearchRequest
	}{
		{BlogSearchRequest{}, BlogSearchRequest{Count: 50, Start: 1, Sort: models.SortByDate}},
		{BlogSearchRequest{Count: 3, Start: -4, Sort: "weird"}, BlogSearchRequest{Count: 10, Start: 1, Sort: models.SortByDate}},
		{BlogSearchRequest{Count: 500, Start: 5000, Sort: models.SortBySimilarity}, BlogSearchRequest{Count: 100, Start: 1000, Sort: models.SortBySimilarity}},
		{BlogSearchRequest{Query: "q", Count: 42, Start: 7, Sort: models.SortByDate}, BlogSearchRequest{Query: "q", Count: 42, Start: 7, Sort: models.SortByDate}},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, tc.in.Bounds())
	}
}
