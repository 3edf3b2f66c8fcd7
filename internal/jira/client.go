// Package jira reads issue metadata from Jira Cloud.
package jira

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/baffalop/watsup/internal/httpclient"
)

// Issue is the part of an issue needed to log work against it.
type Issue struct {
	ID int64
	// AccountRef is the raw account reference from the issue's account
	// field; empty when the issue has none.
	AccountRef string
}

// Options configures a Client.
type Options struct {
	BaseURL      string
	Email        string
	Token        string
	AccountField string
	RetryMax     int
	RPS          float64
}

// Client is an authenticated Jira REST v3 client.
type Client struct {
	http         *httpclient.Client
	accountField string
}

// NewClient creates a client authenticating with email and API token.
func NewClient(opts Options) *Client {
	return &Client{
		http: httpclient.New(httpclient.Options{
			BaseURL:           strings.TrimRight(opts.BaseURL, "/") + "/rest/api/3",
			Decorate:          func(r *http.Request) { r.SetBasicAuth(opts.Email, opts.Token) },
			RetryMax:          opts.RetryMax,
			RequestsPerSecond: opts.RPS,
		}),
		accountField: opts.AccountField,
	}
}

// Issue fetches the numeric id and account reference for an issue key.
func (c *Client) Issue(ctx context.Context, key string) (Issue, error) {
	path := "issue/" + url.PathEscape(key)
	if c.accountField != "" {
		path += "?fields=" + url.QueryEscape(c.accountField)
	}
	res, err := c.http.Get(ctx, path)
	if err != nil {
		return Issue{}, err
	}

	id := gjson.Get(res.Body, "id")
	if !id.Exists() || id.Int() <= 0 {
		return Issue{}, fmt.Errorf("issue %s: response has no numeric id", key)
	}
	issue := Issue{ID: id.Int()}
	if c.accountField != "" {
		issue.AccountRef = accountRef(gjson.Get(res.Body, "fields."+escapePath(c.accountField)))
	}
	return issue, nil
}

// CurrentUserID returns the account id of the authenticated user.
func (c *Client) CurrentUserID(ctx context.Context) (string, error) {
	res, err := c.http.Get(ctx, "myself")
	if err != nil {
		return "", err
	}
	id := gjson.Get(res.Body, "accountId").String()
	if id == "" {
		return "", fmt.Errorf("current user: response has no accountId")
	}
	return id, nil
}

// accountRef reads an account field that is either an object carrying an
// id or a bare scalar.
func accountRef(r gjson.Result) string {
	if r.IsObject() {
		r = r.Get("id")
	}
	if r.Type == gjson.Null || !r.Exists() {
		return ""
	}
	return r.String()
}

// escapePath escapes gjson path metacharacters in a field name such as
// "io.tempo.jira__account".
func escapePath(s string) string {
	var b strings.Builder
	for _, c := range s {
		switch c {
		case '.', '*', '?', '|', '#', '@', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(c)
	}
	return b.String()
}
