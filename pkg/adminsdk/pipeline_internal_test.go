package adminsdk

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestShouldRefresh(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		attempt int
		want    bool
	}{
		{"first 401", http.StatusUnauthorized, 0, true},
		{"replayed 401", http.StatusUnauthorized, 1, false},
		{"403 never refreshes", http.StatusForbidden, 0, false},
		{"500 never refreshes", http.StatusInternalServerError, 0, false},
		{"success", http.StatusOK, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, shouldRefresh(tt.status, tt.attempt))
		})
	}
}

func TestParseErrorResponse(t *testing.T) {
	t.Parallel()

	resp := &http.Response{StatusCode: http.StatusConflict}

	t.Run("code and message envelope", func(t *testing.T) {
		err := parseErrorResponse(resp, []byte(`{"code":"duplicate","message":"already exists"}`))

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, "duplicate", apiErr.Code)
		require.Equal(t, "already exists", apiErr.Message)
		require.Equal(t, "api error 409 (duplicate): already exists", err.Error())
	})

	t.Run("oauth style envelope", func(t *testing.T) {
		err := parseErrorResponse(resp, []byte(`{"error":"invalid_grant","error_description":"expired"}`))

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, "invalid_grant", apiErr.Code)
		require.Equal(t, "expired", apiErr.Message)
	})

	t.Run("non json body", func(t *testing.T) {
		body := []byte("<html>bad gateway</html>")
		err := parseErrorResponse(resp, body)

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		require.Empty(t, apiErr.Code)
		require.Equal(t, "HTTP 409: Conflict", apiErr.Message)
		require.Equal(t, body, apiErr.Body)
		require.True(t, IsStatus(err, http.StatusConflict))
		require.False(t, IsStatus(err, http.StatusNotFound))
	})
}

func TestSessionExpiredError(t *testing.T) {
	t.Parallel()

	cause := errors.New("refresh rejected")
	err := error(&SessionExpiredError{RedirectTo: SignInRoute, Cause: cause})

	require.Equal(t, "Session expired. Please log in again.", err.Error())
	require.ErrorIs(t, err, ErrSessionExpired)
	require.ErrorIs(t, err, cause)
}

func TestNewLimiter(t *testing.T) {
	t.Parallel()

	require.Nil(t, NewLimiter(0, 5))
	require.Nil(t, NewLimiter(-1, 5))

	l := NewLimiter(10, 0)
	require.NotNil(t, l)
	require.Equal(t, 1, l.Burst())
}

func TestListOptionsQuery(t *testing.T) {
	t.Parallel()

	require.Empty(t, ListOptions{}.query())

	q := ListOptions{Page: 2, Limit: 50, Search: "pizza", Status: "pending"}.query()
	require.Equal(t, "limit=50&page=2&search=pizza&status=pending", q.Encode())
}

func TestNewJSONRequest(t *testing.T) {
	t.Parallel()

	t.Run("without body", func(t *testing.T) {
		r, err := NewJSONRequest(http.MethodGet, "/admin/orders", nil)
		require.NoError(t, err)
		require.Nil(t, r.Body)
		require.Nil(t, r.Header)
	})

	t.Run("with body", func(t *testing.T) {
		r, err := NewJSONRequest(http.MethodPost, refreshPath, refreshRequest{RefreshToken: "r-1"})
		require.NoError(t, err)
		require.JSONEq(t, `{"refreshToken":"r-1"}`, string(r.Body))
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
	})

	t.Run("unmarshalable body", func(t *testing.T) {
		_, err := NewJSONRequest(http.MethodPost, "/x", make(chan int))
		require.Error(t, err)
		require.True(t, strings.HasPrefix(err.Error(), "failed to marshal request"))
	})
}

func TestClientURL(t *testing.T) {
	t.Parallel()

	c := NewClient("https://api.example.com/", nil)
	require.Equal(t, "https://api.example.com/admin/orders", c.url("/admin/orders", nil))
}
