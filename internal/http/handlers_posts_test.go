package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftline/draftline-go/internal/core"
	"github.com/draftline/draftline-go/internal/data"
	"github.com/draftline/draftline-go/internal/domain/model"
	"github.com/draftline/draftline-go/internal/service"
	"github.com/draftline/draftline-go/internal/testutil"
)

type routerFixture struct {
	posts   *testutil.InMemoryPostRepo
	queue   *data.MemoryQueueRepo
	handler http.Handler
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	posts := testutil.NewInMemoryPostRepo()
	queue := data.NewMemoryQueueRepo()
	logger := slog.New(slog.DiscardHandler)

	handler := NewRouter(RouterServices{
		Posts: service.NewPostService(service.PostServiceOptions{
			Posts:  posts,
			Queue:  queue,
			Logger: logger,
		}),
		Logger: logger,
	})
	return &routerFixture{posts: posts, queue: queue, handler: handler}
}

func (f *routerFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f *routerFixture) createPost(t *testing.T, req *model.CreatePostRequest) *model.Post {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/posts", req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var post model.Post
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &post))
	return &post
}

func TestCreatePost(t *testing.T) {
	fix := newRouterFixture(t)

	post := fix.createPost(t, testutil.NewPostRequest().Build())
	assert.NotEmpty(t, post.ID)
	assert.Equal(t, model.PostStatusScheduled, post.Status)

	exists, err := fix.queue.Exists(context.Background(), post.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCreatePost_Validation(t *testing.T) {
	fix := newRouterFixture(t)

	rec := fix.do(t, http.MethodPost, "/api/posts", testutil.NewPostRequest().WithContent("").Build())
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "validation_failed", body["error"])
}

func TestCreatePost_MalformedJSON(t *testing.T) {
	fix := newRouterFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/posts", bytes.NewReader([]byte("{nope")))
	rec := httptest.NewRecorder()
	fix.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_json")
}

func TestGetPost(t *testing.T) {
	fix := newRouterFixture(t)
	post := fix.createPost(t, testutil.NewPostRequest().Build())

	rec := fix.do(t, http.MethodGet, "/api/posts/"+post.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got model.Post
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, post.ID, got.ID)

	rec = fix.do(t, http.MethodGet, "/api/posts/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListPosts(t *testing.T) {
	fix := newRouterFixture(t)
	for i := range 3 {
		fix.createPost(t, testutil.NewPostRequest().
			WithContent(testutil.UniqueContent("list")).
			WithScheduledAt(testutil.TestTime().Add(time.Duration(i)*time.Hour)).
			Build())
	}

	rec := fix.do(t, http.MethodGet, "/api/posts?owner_id=owner-1&limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Posts []*model.Post `json:"posts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Posts, 2)

	// Owner is required.
	rec = fix.do(t, http.MethodGet, "/api/posts", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// No posts is an empty list, not null.
	rec = fix.do(t, http.MethodGet, "/api/posts?owner_id=nobody", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"posts":[]}`, rec.Body.String())
}

func TestUpdatePost(t *testing.T) {
	fix := newRouterFixture(t)
	post := fix.createPost(t, testutil.NewPostRequest().Build())

	rec := fix.do(t, http.MethodPatch, "/api/posts/"+post.ID, model.UpdatePostRequest{
		Content: testutil.StringPtr("revised"),
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var got model.Post
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "revised", got.Content)
}

func TestUpdatePost_PublishedConflict(t *testing.T) {
	fix := newRouterFixture(t)
	post := fix.createPost(t, testutil.NewPostRequest().Build())

	ok, err := fix.posts.MarkPublished(context.Background(), core.MarkPublishedParams{
		ID: post.ID, ExternalID: "ext-1", PublishedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	require.True(t, ok)

	rec := fix.do(t, http.MethodPatch, "/api/posts/"+post.ID, model.UpdatePostRequest{
		Content: testutil.StringPtr("too late"),
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDeletePost(t *testing.T) {
	fix := newRouterFixture(t)
	post := fix.createPost(t, testutil.NewPostRequest().Build())

	rec := fix.do(t, http.MethodDelete, "/api/posts/"+post.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = fix.do(t, http.MethodDelete, "/api/posts/"+post.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReschedulePost(t *testing.T) {
	fix := newRouterFixture(t)
	post := fix.createPost(t, testutil.NewPostRequest().Build())

	ok, err := fix.posts.MarkFailed(context.Background(), core.MarkFailedParams{
		ID: post.ID, RetryCount: 3, FailureReason: "rate limited: 429",
	})
	require.NoError(t, err)
	require.True(t, ok)

	retryAt := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	rec := fix.do(t, http.MethodPost,
		fmt.Sprintf("/api/posts/%s/reschedule", post.ID),
		reschedulePostRequest{ScheduledAt: retryAt})
	require.Equal(t, http.StatusOK, rec.Code)

	var got model.Post
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, model.PostStatusScheduled, got.Status)
	assert.Zero(t, got.RetryCount)
}

func TestHealthEndpoint(t *testing.T) {
	fix := newRouterFixture(t)

	rec := fix.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = fix.do(t, http.MethodHead, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}
