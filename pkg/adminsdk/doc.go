/*
Package adminsdk is the authenticated gateway to the marketplace admin REST API.

# Overview

A Client is bound to a base URL and a credstore.Store. Every request sent
through it carries the stored access token as a bearer credential. When the
API answers 401 the client exchanges the stored refresh token for a new access
token, stores it, and replays the original request once:

	store := credstore.NewMemoryStore(credstore.Session{})
	client := adminsdk.NewClient("https://api.example.com", store)

	// Sign in stores the whole session
	_, err := client.SignIn(ctx, adminsdk.SignInRequest{Username: "ops", Password: "..."})

	// Typed collections go through the pipeline
	page, err := client.Orders().List(ctx, adminsdk.ListOptions{Page: 1, Limit: 20})

# Refresh Flow

For each request:

 1. Read the access token from the store and send.
 2. On a 401 for a request that has not been replayed, refresh:
    - no refresh token stored: fail without a network call
    - POST /auth/refresh-token {"refreshToken": R} -> {"newToken": T}
    - on success store T (nothing else changes) and replay with T
 3. A 401 on the replay is returned to the caller unchanged.

Concurrent requests that fail together share one refresh exchange. A request
that finds a fresher token already stored reuses it without calling the API.

# Session Expiry

When a refresh fails the stored session is cleared and the call returns a
*SessionExpiredError. The client never navigates; the caller decides:

	if errors.Is(err, adminsdk.ErrSessionExpired) {
		var expired *adminsdk.SessionExpiredError
		errors.As(err, &expired)
		redirect(expired.RedirectTo) // "/auth/sign-in"
	}

Other failures are returned as they are: *APIError for non-success responses,
wrapped transport errors otherwise. Nothing is retried except the single
replay after a refresh.

# Cancellation

Every call takes a context. Cancelling it aborts the send, the wait for a
refresh and the replay. A shared refresh exchange keeps running for the other
callers, bounded by the HTTP client timeout, and a cancelled caller never
clears the session.

# Thread Safety

A Client is safe for concurrent use provided its Store is.
*/
package adminsdk
