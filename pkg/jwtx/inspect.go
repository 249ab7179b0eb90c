package jwtx

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Inspect decodes the claims of an access token WITHOUT verifying its
// signature. The client holds no verification key; the result is only
// suitable for display (who am I, when does my token expire) and must never
// be used for an authorization decision.
func Inspect(raw string) (Claims, error) {
	var c Claims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &c); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return c, nil
}
