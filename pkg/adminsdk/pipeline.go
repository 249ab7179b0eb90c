package adminsdk

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/fleetadmin/pkg/cryptox"
)

// maxRefreshes bounds how many times one request may be replayed after a
// refresh. A request is never retried twice.
const maxRefreshes = 1

// shouldRefresh decides whether a response earns a refresh-and-replay.
// attempt counts the sends already made for this request after the first.
func shouldRefresh(status, attempt int) bool {
	return status == http.StatusUnauthorized && attempt < maxRefreshes
}

// Do sends r through the pipeline: attach the stored access token, send, and
// on the first 401 refresh the token and replay once.
//
// The returned response is owned by the caller. A 401 on the replayed
// request is returned as is. When the session cannot be refreshed the stored
// credentials are cleared and the error is a *SessionExpiredError.
func (c *Client) Do(ctx context.Context, r Request) (*http.Response, error) {
	session, err := c.store.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}

	token := session.AccessToken
	for attempt := 0; ; attempt++ {
		resp, err := c.send(ctx, r, token)
		if err != nil {
			return nil, err
		}

		if !shouldRefresh(resp.StatusCode, attempt) {
			return resp, nil
		}
		discard(resp)

		c.log(ctx).Debug("access token rejected, refreshing",
			"path", r.Path,
			"token_fp", cryptox.FingerprintToken(token),
		)

		token, err = c.refresh(ctx, token)
		if err != nil {
			return nil, err
		}
	}
}
