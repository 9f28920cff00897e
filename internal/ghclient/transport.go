package ghclient

import (
	"net/http"

	"golang.org/x/oauth2"
)

// MediaTypeV3 is sent as the Accept header on every request.
const MediaTypeV3 = "application/vnd.github.v3+json"

// TokenSource supplies the current credential. An empty string means the
// request is sent unauthenticated.
type TokenSource interface {
	Token() string
}

// StaticToken is a TokenSource with a fixed value.
type StaticToken string

// Token implements TokenSource.
func (s StaticToken) Token() string { return string(s) }

// credentialTransport stamps the Accept header and, when a credential is
// available, an "Authorization: token <value>" header. The source is read
// on every request so a login or logout takes effect immediately.
type credentialTransport struct {
	base   http.RoundTripper
	source TokenSource
}

func (t *credentialTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set("Accept", MediaTypeV3)

	if t.source != nil {
		if v := t.source.Token(); v != "" {
			tok := &oauth2.Token{AccessToken: v, TokenType: "token"}
			tok.SetAuthHeader(r)
		}
	}
	return t.base.RoundTrip(r)
}
