package repository

import (
	"context"
	"errors"
	"mime"
	"net/url"
	"strconv"

	"github.com/noah-isme/sma-gradebook/internal/models"
	"github.com/noah-isme/sma-gradebook/internal/transport"
	appErrors "github.com/noah-isme/sma-gradebook/pkg/errors"
)

// dispatcher is the subset of transport.Dispatcher used by the remote repositories.
type dispatcher interface {
	Send(ctx context.Context, req transport.Request) (*transport.Response, error)
}

func idQuery(key string, id int64) url.Values {
	return url.Values{key: {strconv.FormatInt(id, 10)}}
}

// upstreamError maps dispatch failures onto gateway errors. Client errors keep the
// grade service's status and message.
func upstreamError(err error, action string) error {
	if f, ok := transport.AsFailure(err); ok {
		if f.Kind == transport.ClientError {
			msg := f.Message
			if msg == "" {
				msg = action + " rejected by grade service"
			}
			return appErrors.Wrap(f, appErrors.ErrUpstreamClient.Code, f.StatusCode, msg)
		}
		return appErrors.Wrap(f, appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status,
			"grade service unavailable: failed to "+action)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return appErrors.Wrap(err, appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status,
			"request canceled before grade service answered")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to "+action)
}

// decodeAck reads the optional message of a write response. The grade service answers
// most writes with the updated record, so a missing message falls back to def.
func decodeAck(resp *transport.Response, def string) models.Ack {
	ack := models.Ack{Message: def, Degraded: resp.Degraded}
	var body struct {
		Message string `json:"message"`
	}
	if err := resp.Decode(&body); err == nil && body.Message != "" {
		ack.Message = body.Message
	}
	return ack
}

// decodeViews decodes a submission list and marks the rows when the body was synthesized.
func decodeViews(resp *transport.Response) ([]models.SubmissionView, error) {
	views, err := models.DecodeSubmissions(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.Synthesized {
		for i := range views {
			views[i].Synthesized = true
		}
	}
	return views, nil
}

func attachmentName(resp *transport.Response, def string) string {
	if resp.Header == nil {
		return def
	}
	_, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition"))
	if err != nil || params["filename"] == "" {
		return def
	}
	return params["filename"]
}
