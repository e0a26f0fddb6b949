package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/desertthunder/spotapi/internal/shared"
)

// apiError is the error object the Web API returns with non-2xx responses.
type apiError struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

type response struct {
	status int
	body   []byte
}

// Call sends an authenticated request and decodes the JSON body into T.
//
// query is nil, a [url.Values], or a struct encoded with `form` tags. The returned error is non-nil only
// when the session holds no access token; transport, status and decode failures come back as an
// absent [Result] carrying the cause.
func Call[T any](ctx context.Context, c *Client, method, path string, query any) (Result[T], error) {
	token, err := c.session.bearer()
	if err != nil {
		return Result[T]{}, err
	}

	resp, outcome, err := c.roundTrip(ctx, method, path, query, token)
	if err != nil {
		return absent[T](outcome, statusOf(resp), err), nil
	}

	var v T
	if err := json.Unmarshal(resp.body, &v); err != nil {
		err = fmt.Errorf("%w: %w", shared.ErrDecode, err)
		c.logger.Debug("absorbed response", "method", method, "path", path, "outcome", DecodeFailure, "error", err)
		return absent[T](DecodeFailure, resp.status, err), nil
	}

	return present(v, resp.status), nil
}

// Do sends an authenticated request whose only interesting answer is whether it succeeded.
func Do(ctx context.Context, c *Client, method, path string, query any) (Result[bool], error) {
	token, err := c.session.bearer()
	if err != nil {
		return Result[bool]{}, err
	}

	resp, outcome, err := c.roundTrip(ctx, method, path, query, token)
	if err != nil {
		return absent[bool](outcome, statusOf(resp), err), nil
	}
	return present(true, resp.status), nil
}

// roundTrip executes the request and reads the body. A nil error means a 2xx response.
func (c *Client) roundTrip(ctx context.Context, method, path string, query any, token string) (*response, Outcome, error) {
	req, err := c.newRequest(ctx, method, path, query, token)
	if err != nil {
		// A request that cannot be built will not build on retry either.
		return nil, DecodeFailure, err
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		err = fmt.Errorf("%w: %w", shared.ErrTransport, err)
		c.logger.Debug("absorbed response", "method", method, "path", path, "outcome", TransportFailure, "error", err)
		return nil, TransportFailure, err
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		err = fmt.Errorf("%w: reading body: %w", shared.ErrTransport, err)
		c.logger.Debug("absorbed response", "method", method, "path", path, "outcome", TransportFailure, "error", err)
		return &response{status: httpResp.StatusCode}, TransportFailure, err
	}

	resp := &response{status: httpResp.StatusCode, body: body}
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		err := fmt.Errorf("%w: status %d", shared.ErrAPIRequest, httpResp.StatusCode)
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			err = fmt.Errorf("%w: status %d: %s", shared.ErrAPIRequest, httpResp.StatusCode, apiErr.Error.Message)
		}
		c.logger.Debug("absorbed response", "method", method, "path", path, "outcome", StatusFailure, "error", err)
		return resp, StatusFailure, err
	}

	return resp, Present, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, query any, token string) (*http.Request, error) {
	values, err := c.encodeQuery(query)
	if err != nil {
		return nil, err
	}

	u := c.apiBaseURL + path
	if len(values) > 0 {
		u += "?" + values.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) encodeQuery(query any) (url.Values, error) {
	switch q := query.(type) {
	case nil:
		return nil, nil
	case url.Values:
		return q, nil
	default:
		values, err := c.encoder.Encode(q)
		if err != nil {
			return nil, fmt.Errorf("%w: encoding query: %w", shared.ErrInvalidArgument, err)
		}
		return values, nil
	}
}

func statusOf(r *response) int {
	if r == nil {
		return 0
	}
	return r.status
}
