package adminsdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aussiebroadwan/fleetadmin/pkg/credstore"
	"github.com/aussiebroadwan/fleetadmin/pkg/cryptox"
	"github.com/aussiebroadwan/fleetadmin/pkg/jwtx"
)

// SignInRequest is the body of POST /auth/login.
type SignInRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`

	// FCMToken registers this client for push notifications. Optional.
	FCMToken string `json:"fcmToken,omitempty"`
}

// SignInResponse is what the API returns for a successful sign-in.
type SignInResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	Role         string `json:"role"`
	UserID       string `json:"userId"`
	Username     string `json:"username"`
}

type logoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// SessionInfo describes the stored session for display.
type SessionInfo struct {
	Username        string
	UserID          string
	Role            string
	HasRefreshToken bool

	// AccessExpiresAt is read from the access token's exp claim without
	// verification; zero when the token is opaque.
	AccessExpiresAt time.Time

	// AccessExpired is true when the exp claim has passed. The next call
	// will refresh.
	AccessExpired bool
}

// SignIn authenticates an operator and stores the resulting session,
// replacing whatever session was stored before. A 401 here means bad
// credentials and never triggers a refresh.
func (c *Client) SignIn(ctx context.Context, req SignInRequest) (credstore.Session, error) {
	if req.Username == "" || req.Password == "" {
		return credstore.Session{}, fmt.Errorf("username and password are required")
	}

	r, err := NewJSONRequest(http.MethodPost, signInPath, req)
	if err != nil {
		return credstore.Session{}, err
	}

	resp, err := c.send(ctx, r, "")
	if err != nil {
		return credstore.Session{}, err
	}

	var out SignInResponse
	if err := decodeJSON(resp, &out, http.StatusOK, http.StatusCreated); err != nil {
		return credstore.Session{}, err
	}
	if out.Token == "" {
		return credstore.Session{}, fmt.Errorf("sign-in response carried no token")
	}

	session := credstore.Session{
		AccessToken:  out.Token,
		RefreshToken: out.RefreshToken,
		Role:         out.Role,
		UserID:       out.UserID,
		Username:     out.Username,
		FCMToken:     req.FCMToken,
	}
	if err := c.store.Set(ctx, session); err != nil {
		return credstore.Session{}, fmt.Errorf("failed to store session: %w", err)
	}

	c.log(ctx).Info("signed in",
		"user_id", session.UserID,
		"role", session.Role,
		"token_fp", cryptox.FingerprintToken(session.AccessToken),
	)
	return session, nil
}

// Logout revokes the refresh token server side (best effort) and clears the
// stored session. It succeeds when no session exists. The caller navigates to
// SignInRoute afterwards.
func (c *Client) Logout(ctx context.Context) error {
	session, err := c.store.Get(ctx)
	if err != nil {
		// Unreadable credentials are still cleared
		c.log(ctx).Warn("failed to read credentials before logout", "error", err)
		return c.teardown(ctx)
	}

	if session.RefreshToken != "" {
		if err := c.revoke(ctx, session); err != nil {
			c.log(ctx).Warn("server-side logout failed", "error", err)
		}
	}

	if err := c.teardown(ctx); err != nil {
		return err
	}
	c.log(ctx).Info("signed out", "user_id", session.UserID)
	return nil
}

func (c *Client) revoke(ctx context.Context, session credstore.Session) error {
	r, err := NewJSONRequest(http.MethodPost, logoutPath, logoutRequest{RefreshToken: session.RefreshToken})
	if err != nil {
		return err
	}

	// Sent directly: refreshing a session that is being thrown away is pointless
	resp, err := c.send(ctx, r, session.AccessToken)
	if err != nil {
		return err
	}
	return checkStatus(resp, http.StatusOK, http.StatusNoContent)
}

// CurrentSession reports who is signed in. It returns ErrSessionExpired when
// no access token is stored.
func (c *Client) CurrentSession(ctx context.Context) (SessionInfo, error) {
	session, err := c.store.Get(ctx)
	if err != nil {
		return SessionInfo{}, fmt.Errorf("failed to read credentials: %w", err)
	}
	if session.AccessToken == "" {
		return SessionInfo{}, &SessionExpiredError{RedirectTo: SignInRoute, Cause: errors.New("not signed in")}
	}

	info := SessionInfo{
		Username:        session.Username,
		UserID:          session.UserID,
		Role:            session.Role,
		HasRefreshToken: session.RefreshToken != "",
	}
	if claims, err := jwtx.Inspect(session.AccessToken); err == nil {
		info.AccessExpiresAt = claims.Expiry()
		info.AccessExpired = errors.Is(claims.ValidateExpiry(time.Now()), jwtx.ErrExpired)
	}
	return info, nil
}
