// Package tempo talks to the Tempo REST API: work attributes, accounts and
// worklog creation.
package tempo

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"

	"github.com/baffalop/watsup/internal/cache"
	"github.com/baffalop/watsup/internal/httpclient"
)

// Attribute is a work attribute definition.
type Attribute struct {
	Key  string
	Name string
	Type string
}

// AttributeValue sets one work attribute on a worklog.
type AttributeValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Worklog is the body of a worklog creation request.
type Worklog struct {
	IssueID          int64            `json:"issueId"`
	AuthorAccountID  string           `json:"authorAccountId"`
	TimeSpentSeconds int64            `json:"timeSpentSeconds"`
	StartDate        string           `json:"startDate"`
	StartTime        string           `json:"startTime"`
	Description      string           `json:"description"`
	Attributes       []AttributeValue `json:"attributes,omitempty"`
}

// Options configures a Client.
type Options struct {
	BaseURL  string
	Token    string
	RetryMax int
	RPS      float64
}

// Client is an authenticated Tempo client.
type Client struct {
	http *httpclient.Client
}

// NewClient creates a client sending the API token as a bearer token.
func NewClient(ctx context.Context, opts Options) *Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token, TokenType: "Bearer"})
	return &Client{
		http: httpclient.New(httpclient.Options{
			BaseURL:           opts.BaseURL,
			HTTPClient:        oauth2.NewClient(ctx, ts),
			RetryMax:          opts.RetryMax,
			RequestsPerSecond: opts.RPS,
		}),
	}
}

// WorkAttributes lists the configured work attributes.
func (c *Client) WorkAttributes(ctx context.Context) ([]Attribute, error) {
	res, err := c.http.Get(ctx, "work-attributes")
	if err != nil {
		return nil, err
	}
	var attrs []Attribute
	for _, r := range gjson.Get(res.Body, "results").Array() {
		attrs = append(attrs, Attribute{
			Key:  r.Get("key").String(),
			Name: r.Get("name").String(),
			Type: r.Get("type").String(),
		})
	}
	return attrs, nil
}

// AttributeValues lists the allowed values of a static-list attribute, in
// the order Tempo returns them. Values without a display name use the value.
func (c *Client) AttributeValues(ctx context.Context, key string) ([]cache.CategoryOption, error) {
	res, err := c.http.Get(ctx, "work-attributes/"+url.PathEscape(key))
	if err != nil {
		return nil, err
	}
	names := map[string]string{}
	gjson.Get(res.Body, "names").ForEach(func(k, v gjson.Result) bool {
		names[k.String()] = v.String()
		return true
	})
	var opts []cache.CategoryOption
	for _, v := range gjson.Get(res.Body, "values").Array() {
		value := v.String()
		name := names[value]
		if name == "" {
			name = value
		}
		opts = append(opts, cache.CategoryOption{Value: value, Name: name})
	}
	return opts, nil
}

// AccountKey resolves an account reference from an issue into the key the
// account work attribute expects.
func (c *Client) AccountKey(ctx context.Context, ref string) (string, error) {
	res, err := c.http.Get(ctx, "accounts/"+url.PathEscape(ref))
	if err != nil {
		return "", err
	}
	key := gjson.Get(res.Body, "key").String()
	if key == "" {
		return "", fmt.Errorf("account %s: response has no key", ref)
	}
	return key, nil
}

// PostWorklog submits a worklog once. Non-2xx statuses come back in the
// response rather than as an error.
func (c *Client) PostWorklog(ctx context.Context, w Worklog) (httpclient.Response, error) {
	return c.http.PostJSON(ctx, "worklogs", w)
}

// AccountAttribute returns the key of the ACCOUNT-typed attribute, or "".
func AccountAttribute(attrs []Attribute) string {
	for _, a := range attrs {
		if a.Type == "ACCOUNT" {
			return a.Key
		}
	}
	return ""
}

// CategoryAttribute returns the key of the static-list attribute whose name
// mentions a category, or "".
func CategoryAttribute(attrs []Attribute) string {
	for _, a := range attrs {
		if a.Type == "STATIC_LIST" && strings.Contains(strings.ToLower(a.Name), "category") {
			return a.Key
		}
	}
	return ""
}
