package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pkg/errors"

	"github.com/shulehub/shule/core"
)

var (
	// errors, one per failure class of the remote call
	ErrUnavailable = errors.New("assistant is unreachable")
	ErrBadStatus   = errors.New("assistant returned an error status")
	ErrBadResponse = errors.New("assistant returned an unexpected response")
)

type (
	// Service answers free-form prompts via a remote generative endpoint.
	// Each call is a single independent turn; no conversation state is kept.
	Service interface {
		Ask(ctx context.Context, prompt string) (string, error)
	}

	service struct {
		client  *http.Client
		baseURL string
		apiKey  string
		model   string
		logger  core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(conf *core.Config, logger core.Logger) Service {
	return &service{
		client:  &http.Client{Timeout: conf.Assistant.Timeout},
		baseURL: conf.Assistant.BaseURL,
		apiKey:  conf.Assistant.APIKey,
		model:   conf.Assistant.Model,
		logger:  logger,
	}
}

// wire format of the generateContent endpoint
type (
	generateRequest struct {
		Contents []content `json:"contents"`
	}
	content struct {
		Parts []part `json:"parts"`
	}
	part struct {
		Text string `json:"text"`
	}
	generateResponse struct {
		Candidates []struct {
			Content content `json:"content"`
		} `json:"candidates"`
	}
)

// Ask sends the prompt as the only content of a single-turn request and returns
// the first candidate's text. One best-effort attempt; the context bounds the call.
func (svc *service) Ask(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", errors.Wrap(err, "marshaling request")
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", svc.baseURL, svc.model, svc.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "building request")
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := svc.client.Do(req)
	if err != nil {
		svc.logger.Warn("assistant request failed", err)
		return "", ErrUnavailable
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		svc.logger.Warn(fmt.Sprintf("assistant responded with status %d", res.StatusCode))
		return "", ErrBadStatus
	}

	var data generateResponse
	if err = json.NewDecoder(res.Body).Decode(&data); err != nil {
		svc.logger.Warn("assistant response is not valid JSON", err)
		return "", ErrBadResponse
	}
	if len(data.Candidates) == 0 || len(data.Candidates[0].Content.Parts) == 0 {
		return "", ErrBadResponse
	}
	return data.Candidates[0].Content.Parts[0].Text, nil
}
