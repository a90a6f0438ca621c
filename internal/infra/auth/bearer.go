package auth

import (
	"strings"

	"atrium/internal/domain/service"
	"atrium/internal/errors"
)

const bearerPrefix = "Bearer "

// ExtractBearer returns the token after the case-sensitive "Bearer " prefix.
// It checks the format only and does not validate the token.
func ExtractBearer(header string) (string, error) {
	token, ok := strings.CutPrefix(header, bearerPrefix)
	if !ok || token == "" {
		return "", errors.Wrap(service.ErrAuthentication, "authorization header is not a bearer credential")
	}

	return token, nil
}
