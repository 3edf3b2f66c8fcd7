package tempo_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baffalop/watsup/internal/cache"
	"github.com/baffalop/watsup/internal/tempo"
)

type fakeTempo struct {
	posts      []map[string]any
	postStatus int
}

func (f *fakeTempo) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer secret" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/work-attributes":
		_, _ = io.WriteString(w, `{"results":[
			{"key":"_Account_","name":"Account","type":"ACCOUNT"},
			{"key":"_Notes_","name":"Notes","type":"INPUT_FIELD"},
			{"key":"_WorkCategory_","name":"Work Category","type":"STATIC_LIST"}]}`)
	case r.Method == http.MethodGet && r.URL.Path == "/work-attributes/_WorkCategory_":
		_, _ = io.WriteString(w, `{"key":"_WorkCategory_","values":["dev","mtg","v1.2"],"names":{"dev":"Development","mtg":"Meetings"}}`)
	case r.Method == http.MethodGet && r.URL.Path == "/accounts/7":
		_, _ = io.WriteString(w, `{"id":7,"key":"ACME-DEV","name":"Acme Dev"}`)
	case r.Method == http.MethodPost && r.URL.Path == "/worklogs":
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.posts = append(f.posts, body)
		if f.postStatus != 0 {
			w.WriteHeader(f.postStatus)
			_, _ = io.WriteString(w, `{"errors":[{"message":"Worklog must not exceed 24h"}]}`)
			return
		}
		_, _ = io.WriteString(w, `{"tempoWorklogId":1}`)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newClient(t *testing.T, f *fakeTempo) *tempo.Client {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return tempo.NewClient(context.Background(), tempo.Options{BaseURL: srv.URL, Token: "secret"})
}

func TestWorkAttributesAndDiscovery(t *testing.T) {
	c := newClient(t, &fakeTempo{})
	attrs, err := c.WorkAttributes(context.Background())
	require.NoError(t, err)
	require.Len(t, attrs, 3)

	assert.Equal(t, "_Account_", tempo.AccountAttribute(attrs))
	assert.Equal(t, "_WorkCategory_", tempo.CategoryAttribute(attrs))
	assert.Empty(t, tempo.CategoryAttribute(attrs[:2]))
	assert.Empty(t, tempo.AccountAttribute(nil))
}

func TestAttributeValues(t *testing.T) {
	c := newClient(t, &fakeTempo{})
	opts, err := c.AttributeValues(context.Background(), "_WorkCategory_")
	require.NoError(t, err)
	assert.Equal(t, []cache.CategoryOption{
		{Value: "dev", Name: "Development"},
		{Value: "mtg", Name: "Meetings"},
		{Value: "v1.2", Name: "v1.2"},
	}, opts)
}

func TestAccountKey(t *testing.T) {
	c := newClient(t, &fakeTempo{})
	key, err := c.AccountKey(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, "ACME-DEV", key)

	_, err = c.AccountKey(context.Background(), "8")
	assert.Error(t, err)
}

func TestPostWorklog(t *testing.T) {
	f := &fakeTempo{}
	c := newClient(t, f)
	res, err := c.PostWorklog(context.Background(), tempo.Worklog{
		IssueID:          10042,
		AuthorAccountID:  "abc",
		TimeSpentSeconds: 6000,
		StartDate:        "2024-03-04",
		StartTime:        "09:00:00",
		Description:      "Fix the widget",
		Attributes:       []tempo.AttributeValue{{Key: "_Account_", Value: "ACME-DEV"}},
	})
	require.NoError(t, err)
	assert.True(t, res.OK())

	require.Len(t, f.posts, 1)
	assert.Equal(t, float64(10042), f.posts[0]["issueId"])
	assert.Equal(t, float64(6000), f.posts[0]["timeSpentSeconds"])
	assert.Equal(t, "2024-03-04", f.posts[0]["startDate"])
	assert.Equal(t, []any{map[string]any{"key": "_Account_", "value": "ACME-DEV"}}, f.posts[0]["attributes"])
}

func TestPostWorklogRejected(t *testing.T) {
	f := &fakeTempo{postStatus: http.StatusBadRequest}
	c := newClient(t, f)
	res, err := c.PostWorklog(context.Background(), tempo.Worklog{IssueID: 1, TimeSpentSeconds: 90000})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, res.Body, "must not exceed 24h")
	assert.Len(t, f.posts, 1)
	_, hasAttrs := f.posts[0]["attributes"]
	assert.False(t, hasAttrs)
}
