package http

import (
	"context"
	"encoding/json"
	"fmt"
	stdhttp "net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rotisserie/eris"

	"pressroom/app/internal/release"
)

type webhookInput struct {
	Signature string `header:"X-Pressroom-Signature"`
	RawBody   []byte
}

type webhookResponse struct {
	Status int
	Body   struct {
		Success bool   `json:"success"`
		Message string `json:"message,omitempty"`
		Error   string `json:"error,omitempty"`
	}
}

func (s *Server) registerWebhookRoute() {
	huma.Post(s.api, "/webhooks/release", s.releaseWebhookHandler, jsonOperation(
		"Handle a content release webhook",
		stdhttp.StatusUnauthorized,
		stdhttp.StatusInternalServerError,
	))
}

func (s *Server) releaseWebhookHandler(ctx context.Context, input *webhookInput) (*webhookResponse, error) {
	resp := &webhookResponse{}

	if !release.VerifySignature(input.RawBody, input.Signature, s.webhookSecret) {
		resp.Status = stdhttp.StatusUnauthorized
		resp.Body.Error = "Invalid webhook signature"
		return resp, nil
	}

	var payload release.Payload
	if err := json.Unmarshal(input.RawBody, &payload); err != nil {
		s.recordError(ctx, eris.Wrap(err, "decoding release webhook payload"), "release webhook error", nil)
		resp.Status = stdhttp.StatusInternalServerError
		resp.Body.Error = "Invalid webhook payload"
		return resp, nil
	}

	s.dispatcher.Dispatch(ctx, payload)

	resp.Status = stdhttp.StatusOK
	resp.Body.Success = true
	resp.Body.Message = fmt.Sprintf("Release webhook processed: %s", payload.Action)
	return resp, nil
}
