package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"insightboard/pkg/models"
)

// ValidatorClient is an interface for the external service that judges
// whether a candidate question is answerable from the upstream data APIs.
type ValidatorClient interface {
	// Validate submits a question and the capability description and returns
	// the structured verdict.
	Validate(ctx context.Context, question, capabilityDescription string) (*models.Verdict, error)
}

// HTTPValidatorClient is an HTTP implementation of the ValidatorClient
// interface.
type HTTPValidatorClient struct {
	url    string
	client *http.Client
}

// NewHTTPValidatorClient creates a new HTTPValidatorClient. The timeout
// bounds the whole round-trip; a timeout is reported as an ordinary
// collaborator failure.
func NewHTTPValidatorClient(url string, timeout time.Duration) *HTTPValidatorClient {
	return &HTTPValidatorClient{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Validate submits the question for validation.
func (c *HTTPValidatorClient) Validate(ctx context.Context, question, capabilityDescription string) (*models.Verdict, error) {
	requestBody, err := json.Marshal(models.ValidationRequest{
		Question:              question,
		CapabilityDescription: capabilityDescription,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.url+"/validate", bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to validate question: status code %d", resp.StatusCode)
	}

	var verdict models.Verdict
	if err := json.NewDecoder(resp.Body).Decode(&verdict); err != nil {
		return nil, fmt.Errorf("failed to decode response body: %w", err)
	}

	if err := checkVerdict(&verdict); err != nil {
		return nil, err
	}
	return &verdict, nil
}

// checkVerdict rejects responses that do not match the contract. A verdict
// lacking its required fields is a hard failure, not a refinement outcome.
func checkVerdict(v *models.Verdict) error {
	switch v.Status {
	case models.VerdictValid:
		return nil
	case models.VerdictNeedsRefinement:
		if v.ValidatedQuestion == "" {
			return fmt.Errorf("malformed verdict: NEEDS_REFINEMENT without validatedQuestion")
		}
		return nil
	case models.VerdictInvalid:
		if v.RejectionReason == "" {
			return fmt.Errorf("malformed verdict: INVALID without rejectionReason")
		}
		return nil
	default:
		return fmt.Errorf("malformed verdict: unknown status %q", v.Status)
	}
}
