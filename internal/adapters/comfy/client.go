package comfy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"

	"github.com/google/uuid"

	"comfyrun/internal/adapters/transport"
	"comfyrun/internal/core/domain"
	"comfyrun/internal/core/ports"
	"comfyrun/internal/core/schema"
)

const (
	systemStatsPath = "/system_stats"
	promptPath      = "/prompt"
	historyPath     = "/history/"
	viewPath        = "/view"
)

var (
	// ErrMalformedResponse is returned when a payload fails schema validation.
	ErrMalformedResponse = domain.ErrMalformedResponse

	// ErrMissingPromptID is returned when /prompt accepts a job without naming it.
	ErrMissingPromptID = errors.New("response has no prompt_id")
)

var _ ports.ExecutionService = (*Client)(nil)

// Client implements ports.ExecutionService against the ComfyUI HTTP API.
type Client struct {
	http     *transport.Client
	clientID string
	logger   *slog.Logger
}

// NewClient creates a new Client. Every client instance gets its own client_id.
func NewClient(t *transport.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		http:     t,
		clientID: uuid.New().String(),
		logger:   logger,
	}
}

// ClientID returns the client_id sent with every submission.
func (c *Client) ClientID() string {
	return c.clientID
}

// Ping checks that the service is up. Any 2xx counts as alive.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.http.Get(ctx, systemStatsPath, nil); err != nil {
		return fmt.Errorf("liveness check: %w", err)
	}
	return nil
}

type promptRequest struct {
	Prompt   json.RawMessage `json:"prompt"`
	ClientID string          `json:"client_id,omitempty"`
}

type promptResponse struct {
	PromptID   string                     `json:"prompt_id"`
	NodeErrors map[string]json.RawMessage `json:"node_errors"`
}

type promptRejection struct {
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
		Details string `json:"details"`
	} `json:"error"`
	NodeErrors map[string]json.RawMessage `json:"node_errors"`
}

// QueuePrompt submits the workflow and returns the prompt ID.
func (c *Client) QueuePrompt(ctx context.Context, workflow json.RawMessage) (string, error) {
	raw, err := c.http.PostJSON(ctx, promptPath, promptRequest{Prompt: workflow, ClientID: c.clientID})
	if err != nil {
		var se *transport.StatusError
		if errors.As(err, &se) {
			if detail := rejectionDetail(se.Body); detail != "" {
				return "", fmt.Errorf("prompt rejected: %s: %w", detail, se)
			}
		}
		return "", fmt.Errorf("queue prompt: %w", err)
	}

	if err := schema.Validate(promptResponseSchema, raw); err != nil {
		return "", fmt.Errorf("%w: prompt: %v", ErrMalformedResponse, err)
	}
	var resp promptResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("%w: prompt: %v", ErrMalformedResponse, err)
	}
	if resp.PromptID == "" {
		return "", ErrMissingPromptID
	}
	if len(resp.NodeErrors) > 0 {
		c.logger.Warn("comfy.prompt.node_errors", "prompt_id", resp.PromptID, "nodes", sortedKeys(resp.NodeErrors))
	}
	return resp.PromptID, nil
}

// History fetches the status of a prompt.
func (c *Client) History(ctx context.Context, promptID string) (domain.JobStatus, error) {
	raw, err := c.http.Get(ctx, historyPath+url.PathEscape(promptID), nil)
	if err != nil {
		return domain.JobStatus{}, fmt.Errorf("history: %w", err)
	}
	return parseHistory(raw, promptID)
}

// View downloads one output file.
func (c *Client) View(ctx context.Context, d domain.OutputDescriptor) ([]byte, error) {
	q := url.Values{}
	q.Set("filename", d.Filename)
	q.Set("subfolder", d.Subfolder)
	q.Set("type", string(d.Type))
	data, err := c.http.Get(ctx, viewPath, q)
	if err != nil {
		return nil, fmt.Errorf("view %s: %w", d.Filename, err)
	}
	return data, nil
}

func rejectionDetail(body []byte) string {
	var rej promptRejection
	if err := json.Unmarshal(body, &rej); err != nil {
		return ""
	}
	var parts []string
	if rej.Error != nil {
		msg := rej.Error.Message
		if rej.Error.Details != "" {
			msg += ": " + rej.Error.Details
		}
		if msg != "" {
			parts = append(parts, msg)
		}
	}
	if len(rej.NodeErrors) > 0 {
		parts = append(parts, "node errors in "+strings.Join(sortedKeys(rej.NodeErrors), ", "))
	}
	return strings.Join(parts, "; ")
}

func sortedKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
