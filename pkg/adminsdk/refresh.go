package adminsdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/fleetadmin/pkg/cryptox"
)

var (
	errNoRefreshToken  = errors.New("no refresh token stored")
	errEmptyNewToken   = errors.New("refresh response carried no token")
	errSessionReplaced = errors.New("session replaced during refresh")
)

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	NewToken string `json:"newToken"`
}

// refresh obtains a usable access token after rejectedToken drew a 401.
//
// Concurrent callers holding the same refresh token share one exchange. If
// the store already holds a different access token, another request finished
// a refresh first and that token is reused without a network call.
func (c *Client) refresh(ctx context.Context, rejectedToken string) (string, error) {
	session, err := c.store.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read credentials: %w", err)
	}

	if session.RefreshToken == "" {
		return "", c.expire(ctx, session.RefreshToken, errNoRefreshToken)
	}

	if session.AccessToken != "" && session.AccessToken != rejectedToken {
		return session.AccessToken, nil
	}

	// The exchange outlives any single caller so that one cancelled request
	// does not fail the others waiting on it.
	ch := c.refreshes.DoChan(session.RefreshToken, func() (any, error) {
		ctx := context.WithoutCancel(ctx)

		// A flight that just finished may already have stored a new token.
		current, err := c.store.Get(ctx)
		if err == nil && current.RefreshToken == session.RefreshToken &&
			current.AccessToken != "" && current.AccessToken != rejectedToken {
			return current.AccessToken, nil
		}
		return c.exchange(ctx, session.RefreshToken)
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err == nil {
			return res.Val.(string), nil
		}
		var expired *SessionExpiredError
		if errors.As(res.Err, &expired) {
			return "", expired
		}
		return "", c.expire(ctx, session.RefreshToken, res.Err)
	}
}

// exchange trades refreshToken for a new access token and persists it,
// leaving every other session field untouched.
func (c *Client) exchange(ctx context.Context, refreshToken string) (string, error) {
	req, err := NewJSONRequest(http.MethodPost, refreshPath, refreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return "", err
	}

	resp, err := c.send(ctx, req, "")
	if err != nil {
		return "", err
	}

	var out refreshResponse
	if err := decodeJSON(resp, &out, http.StatusOK, http.StatusCreated); err != nil {
		return "", err
	}
	if out.NewToken == "" {
		return "", errEmptyNewToken
	}

	current, err := c.store.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read credentials: %w", err)
	}
	if current.RefreshToken != refreshToken {
		// Logged out or signed in as someone else meanwhile; the new token
		// belongs to a session that no longer exists.
		return "", &SessionExpiredError{RedirectTo: SignInRoute, Cause: errSessionReplaced}
	}

	current.AccessToken = out.NewToken
	if err := c.store.Set(ctx, current); err != nil {
		return "", fmt.Errorf("failed to store refreshed token: %w", err)
	}

	c.log(ctx).Info("access token refreshed",
		"user_id", current.UserID,
		"token_fp", cryptox.FingerprintToken(out.NewToken),
	)
	return out.NewToken, nil
}

// expire tears the session down and reports it as expired. refreshToken is
// the token the failed refresh worked from; a session stored since then under
// another refresh token belongs to a new sign-in and is left alone.
func (c *Client) expire(ctx context.Context, refreshToken string, cause error) error {
	c.log(ctx).Warn("session expired", "cause", cause)

	current, err := c.store.Get(context.WithoutCancel(ctx))
	if err == nil && current.RefreshToken != refreshToken {
		return &SessionExpiredError{RedirectTo: SignInRoute, Cause: errors.Join(cause, errSessionReplaced)}
	}

	if err := c.teardown(ctx); err != nil {
		cause = errors.Join(cause, err)
	}
	return &SessionExpiredError{RedirectTo: SignInRoute, Cause: cause}
}

// teardown removes every credential field. It is not cancelled with ctx: a
// half-cleared session is worse than a late one.
func (c *Client) teardown(ctx context.Context) error {
	if err := c.store.Clear(context.WithoutCancel(ctx)); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	return nil
}
