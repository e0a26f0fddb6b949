package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/desertthunder/spotapi/internal/shared"
	"github.com/desertthunder/spotapi/spotify"
)

const successPage = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>spotapi</title></head>
<body style="font-family: sans-serif; background: #121212; color: #b3b3b3; text-align: center; padding-top: 20vh">
<h1 style="color: #1db954">Authorized</h1>
<p>spotapi received your tokens. Return to the terminal.</p>
</body>
</html>
`

// CodeExchanger trades an authorization code for tokens. [*spotify.Client] implements it.
type CodeExchanger interface {
	ExchangeCode(ctx context.Context, code string) (spotify.Result[spotify.AccessTokenResult], error)
}

// OAuthResult is the outcome of one authorization callback.
type OAuthResult struct {
	Token spotify.AccessTokenResult
	err   error
}

func (o OAuthResult) Error() error {
	return o.err
}

// OAuthHandler serves the authorization redirect. Only the first request is processed; its
// outcome is delivered once on [OAuthHandler.Result].
type OAuthHandler struct {
	exchanger CodeExchanger
	state     string
	results   chan OAuthResult
	hit       atomic.Bool
	once      sync.Once
}

// NewOAuthHandler creates a handler that exchanges codes through exchanger.
//
// A non-empty state must come back unchanged on the callback.
func NewOAuthHandler(exchanger CodeExchanger, state string) *OAuthHandler {
	return &OAuthHandler{
		exchanger: exchanger,
		state:     state,
		results:   make(chan OAuthResult, 1),
	}
}

func (h *OAuthHandler) Routes() []string {
	return []string{"GET /callback"}
}

func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.hit.CompareAndSwap(false, true) {
		http.Error(w, "callback already handled", http.StatusBadRequest)
		return
	}

	token, status, err := h.exchange(r)
	if err != nil {
		h.Send(OAuthResult{err: err})
		http.Error(w, err.Error(), status)
		return
	}
	h.Send(OAuthResult{Token: token})

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.WriteString(w, successPage)
}

// exchange validates the callback and trades its code. The returned status is used for failures.
func (h *OAuthHandler) exchange(r *http.Request) (spotify.AccessTokenResult, int, error) {
	var none spotify.AccessTokenResult
	callback := r.URL.String()

	if h.state != "" && r.URL.Query().Get("state") != h.state {
		return none, http.StatusBadRequest, fmt.Errorf("%w: state mismatch", shared.ErrAuthFailed)
	}
	if err := spotify.CallbackError(callback); err != nil {
		return none, http.StatusBadRequest, err
	}

	code, ok := spotify.ExtractAuthCode(callback)
	if !ok || code == "" {
		return none, http.StatusBadRequest, fmt.Errorf("%w: callback carried no code", shared.ErrAuthFailed)
	}

	res, err := h.exchanger.ExchangeCode(r.Context(), code)
	if err != nil {
		return none, http.StatusInternalServerError, err
	}

	token, ok := res.Get()
	if !ok {
		return none, http.StatusBadGateway, fmt.Errorf("%w: token exchange ended in %s: %w", shared.ErrAuthFailed, res.Outcome(), res.Err())
	}
	return token, http.StatusOK, nil
}

// Send delivers result and closes the channel. Later calls do nothing.
func (h *OAuthHandler) Send(result OAuthResult) {
	h.once.Do(func() {
		h.results <- result
		close(h.results)
	})
}

// Result receives exactly one [OAuthResult].
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.results
}
