package fetch

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/unkn0wn-root/apidash/internal/errdef"
)

const defaultTimeout = 30 * time.Second

// Client retrieves catalog documents over HTTP, so a dashboard can
// point at a documentation URL instead of uploading a file.
type Client struct {
	http *resty.Client
}

func NewClient() *Client {
	client := resty.New().
		SetTimeout(defaultTimeout).
		SetHeader("Accept", "application/json")
	return &Client{http: client}
}

// Document downloads the raw documentation JSON. Failures are
// terminal; there is no retry.
func (c *Client) Document(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.http.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeHTTP, err, "fetch documentation %s", url)
	}
	if resp.StatusCode() != 200 {
		return nil, errdef.New(errdef.CodeHTTP, "fetch documentation %s: status %d", url, resp.StatusCode())
	}
	return resp.Body(), nil
}
