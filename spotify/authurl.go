package spotify

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/desertthunder/spotapi/internal/shared"
)

// BuildAuthURL returns the URL a user visits to grant scopes to clientID.
//
// Values are interpolated verbatim, without percent-encoding, so the result is byte-for-byte what
// Spotify's reference clients produce: response_type, client_id, scope, redirect_uri, in that order.
func BuildAuthURL(clientID, redirectURI string, scopes Scopes) (string, error) {
	return buildAuthURL(defaultAuthURL, clientID, redirectURI, scopes)
}

func buildAuthURL(base, clientID, redirectURI string, scopes Scopes) (string, error) {
	creds := Credentials{ClientID: clientID, RedirectURI: redirectURI}
	if err := creds.require(fieldClientID, fieldRedirectURI); err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(base)
	b.WriteString("?response_type=code")
	b.WriteString("&client_id=" + clientID)
	b.WriteString("&scope=" + scopes.String())
	b.WriteString("&redirect_uri=" + redirectURI)
	return b.String(), nil
}

// ExtractAuthCode returns the value of the code query parameter of a redirect callback URL.
//
// ok is false when the URL cannot be parsed or carries no code parameter.
func ExtractAuthCode(callbackURL string) (code string, ok bool) {
	u, err := url.Parse(callbackURL)
	if err != nil {
		return "", false
	}

	values, err := url.ParseQuery(u.RawQuery)
	if err != nil && len(values) == 0 {
		return "", false
	}
	if _, present := values["code"]; !present {
		return "", false
	}
	return values.Get("code"), true
}

// CallbackError returns the error reported on a redirect callback when the user denied access.
func CallbackError(callbackURL string) error {
	u, err := url.Parse(callbackURL)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrInvalidArgument, err)
	}
	if reason := u.Query().Get("error"); reason != "" {
		return fmt.Errorf("%w: %s", shared.ErrAuthFailed, reason)
	}
	return nil
}
