// Package auth turns a configured credential into request headers.
package auth

import (
	"net/http"

	"golang.org/x/oauth2"
)

// TokenType is the authorization scheme the raw content host accepts for
// personal access tokens.
const TokenType = "token"

// Token returns the oauth2 token for credential, or nil when none is configured.
func Token(credential string) *oauth2.Token {
	if credential == "" {
		return nil
	}
	return &oauth2.Token{AccessToken: credential, TokenType: TokenType}
}

// Headers returns the headers to attach to every fetch. With no credential the
// set is empty, so no Authorization header is sent at all.
func Headers(credential string) http.Header {
	h := make(http.Header)
	tok := Token(credential)
	if tok == nil {
		return h
	}

	req := &http.Request{Header: h}
	tok.SetAuthHeader(req)
	return h
}
