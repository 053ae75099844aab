// Package gateway submits the collected tabs to the newsletter backend.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/go-tabnews/internal/errors"
	"github.com/jrsteele09/go-tabnews/tabs"
	"github.com/rs/zerolog/log"
)

// Result is the outcome of one submission. Body is the backend's decoded
// response or a synthesised {success, error|message} object; Err is set
// when no usable response was received.
type Result struct {
	StatusCode int
	Body       map[string]any
	Err        error
}

// Succeeded reports false only when the body's success flag is literally
// false. The HTTP status is not consulted.
func (r Result) Succeeded() bool {
	success, ok := r.Body["success"].(bool)
	return !ok || success
}

// Message returns the body's error or message text, if any.
func (r Result) Message() string {
	for _, key := range []string{"error", "message"} {
		if s, ok := r.Body[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

type submission struct {
	Tabs      []tabs.TabRecord `json:"tabs"`
	Timestamp int64            `json:"timestamp"`
}

// Gateway posts tab lists to a fixed endpoint. It performs exactly one
// request per Submit: no retries, no backoff.
type Gateway struct {
	endpoint   string
	httpClient *http.Client
	nowTime    func() time.Time
	requestID  func() string
}

// GatewayOption defines a function type to modify the Gateway instance.
type GatewayOption func(*Gateway)

func WithHTTPClient(client *http.Client) GatewayOption {
	return func(g *Gateway) {
		g.httpClient = client
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) GatewayOption {
	return func(g *Gateway) {
		g.nowTime = nowFunc
	}
}

func WithRequestIDGenerator(f func() string) GatewayOption {
	return func(g *Gateway) {
		g.requestID = f
	}
}

func New(endpoint string, options ...GatewayOption) *Gateway {
	g := &Gateway{
		endpoint:   endpoint,
		httpClient: &http.Client{},
		nowTime:    time.Now,
		requestID:  uuid.NewString,
	}
	for _, opt := range options {
		opt(g)
	}
	return g
}

// Submit sends the tabs with the identity token as a bearer credential.
// Failures are reported in the Result, never as a separate error.
func (g *Gateway) Submit(ctx context.Context, records []tabs.TabRecord, token string) Result {
	if token == "" {
		return failure(0, &GatewayError{Kind: NotAuthenticated, Err: apperrors.ErrNotLoggedIn})
	}
	if records == nil {
		records = []tabs.TabRecord{}
	}

	payload, err := json.Marshal(submission{Tabs: records, Timestamp: g.nowTime().UnixMilli()})
	if err != nil {
		return failure(0, &GatewayError{Kind: RequestInvalid, Err: err})
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(payload))
	if err != nil {
		return failure(0, &GatewayError{Kind: RequestInvalid, Err: err})
	}
	requestID := g.requestID()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Request-ID", requestID)

	logger := log.With().Str("request_id", requestID).Logger()
	logger.Debug().Int("tabs", len(records)).Str("endpoint", g.endpoint).Msg("Submitting tabs")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		logger.Err(err).Msg("Tab submission failed")
		return failure(0, &GatewayError{Kind: NetworkFailure, Err: err})
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Err(err).Msg("Reading tab submission response failed")
		return failure(resp.StatusCode, &GatewayError{Kind: NetworkFailure, Err: err})
	}

	result := decodeResponse(resp, body)
	logger.Info().Int("status", resp.StatusCode).Bool("success", result.Succeeded()).Msg("Tab submission completed")
	return result
}

func decodeResponse(resp *http.Response, body []byte) Result {
	if isJSON(resp.Header.Get("Content-Type")) {
		var decoded any
		if err := json.Unmarshal(body, &decoded); err != nil {
			return failure(resp.StatusCode, &GatewayError{Kind: MalformedResponse, Err: err})
		}
		if object, ok := decoded.(map[string]any); ok {
			return Result{StatusCode: resp.StatusCode, Body: object}
		}
		return Result{StatusCode: resp.StatusCode, Body: map[string]any{"success": true, "data": decoded}}
	}

	return Result{StatusCode: resp.StatusCode, Body: map[string]any{"success": true, "message": string(body)}}
}

func failure(status int, err error) Result {
	return Result{
		StatusCode: status,
		Body:       map[string]any{"success": false, "error": err.Error()},
		Err:        err,
	}
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// KindOf returns the GatewayError kind carried by err, or zero.
func KindOf(err error) ErrorKind {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr.Kind
	}
	return 0
}
