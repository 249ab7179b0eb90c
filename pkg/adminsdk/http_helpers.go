package adminsdk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
)

// maxErrorBody caps how much of an error response is kept in APIError.Body.
const maxErrorBody = 64 << 10

// decodeJSON decodes a JSON response into target when the status is one of
// expected, and returns an *APIError otherwise. It always closes the body.
func decodeJSON(resp *http.Response, target any, expected ...int) error {
	defer resp.Body.Close()

	if !slices.Contains(expected, resp.StatusCode) {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return parseErrorResponse(resp, body)
	}

	if target == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// checkStatus returns an *APIError unless the status is one of expected.
func checkStatus(resp *http.Response, expected ...int) error {
	return decodeJSON(resp, nil, expected...)
}

// doJSON sends in (if any) through the pipeline and decodes the reply into out.
func (c *Client) doJSON(
	ctx context.Context,
	method, path string,
	in, out any,
	expected ...int,
) error {
	req, err := NewJSONRequest(method, path, in)
	if err != nil {
		return err
	}
	return c.doRequestJSON(ctx, req, out, expected...)
}

func (c *Client) doRequestJSON(ctx context.Context, req Request, out any, expected ...int) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	return decodeJSON(resp, out, expected...)
}
