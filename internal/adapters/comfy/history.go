package comfy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"comfyrun/internal/core/domain"
	"comfyrun/internal/core/schema"
)

type historyEntry struct {
	Status *struct {
		Completed bool              `json:"completed"`
		StatusStr string            `json:"status_str"`
		Messages  []json.RawMessage `json:"messages"`
	} `json:"status"`
	Outputs json.RawMessage `json:"outputs"`
}

// parseHistory maps the /history payload for promptID onto a JobStatus.
func parseHistory(raw []byte, promptID string) (domain.JobStatus, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return domain.JobStatus{}, fmt.Errorf("%w: history: %v", ErrMalformedResponse, err)
	}
	rawEntry, ok := top[promptID]
	if !ok || isNull(rawEntry) {
		return domain.JobStatus{State: domain.StatePending, Absent: true}, nil
	}
	if err := schema.Validate(historyEntrySchema, rawEntry); err != nil {
		return domain.JobStatus{}, fmt.Errorf("%w: history entry: %v", ErrMalformedResponse, err)
	}

	var entry historyEntry
	if err := json.Unmarshal(rawEntry, &entry); err != nil {
		return domain.JobStatus{}, fmt.Errorf("%w: history entry: %v", ErrMalformedResponse, err)
	}
	if entry.Status == nil {
		return domain.JobStatus{State: domain.StatePending}, nil
	}

	// The service reports execution errors with completed=false.
	if entry.Status.StatusStr == "error" {
		reason := "job execution failed"
		if detail := executionErrorDetail(entry.Status.Messages); detail != "" {
			reason += ": " + detail
		}
		return domain.JobStatus{State: domain.StateFailed, Reason: reason}, nil
	}
	if !entry.Status.Completed {
		return domain.JobStatus{State: domain.StatePending}, nil
	}
	if len(entry.Outputs) == 0 || isNull(entry.Outputs) {
		return domain.JobStatus{State: domain.StateFailed, Reason: "job completed with no outputs"}, nil
	}

	outputs, err := orderedNodeOutputs(entry.Outputs)
	if err != nil {
		return domain.JobStatus{}, fmt.Errorf("%w: outputs: %v", ErrMalformedResponse, err)
	}
	return domain.JobStatus{State: domain.StateCompleted, Outputs: outputs}, nil
}

// orderedNodeOutputs decodes a JSON object keeping the key order of the payload.
func orderedNodeOutputs(raw json.RawMessage) ([]domain.NodeOutput, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	var out []domain.NodeOutput
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("node %s: %w", key, err)
		}
		out = append(out, domain.NodeOutput{NodeID: key, Output: value})
	}
	if _, err := dec.Token(); err != nil && err != io.EOF {
		return nil, err
	}
	return out, nil
}

// executionErrorDetail extracts the exception message of an
// ["execution_error", {...}] status message, if any.
func executionErrorDetail(messages []json.RawMessage) string {
	for _, m := range messages {
		var pair []json.RawMessage
		if err := json.Unmarshal(m, &pair); err != nil || len(pair) != 2 {
			continue
		}
		var event string
		if err := json.Unmarshal(pair[0], &event); err != nil || event != "execution_error" {
			continue
		}
		var data struct {
			NodeID           string `json:"node_id"`
			NodeType         string `json:"node_type"`
			ExceptionMessage string `json:"exception_message"`
		}
		if err := json.Unmarshal(pair[1], &data); err != nil {
			continue
		}
		data.ExceptionMessage = strings.TrimSpace(data.ExceptionMessage)
		if data.ExceptionMessage == "" {
			return ""
		}
		if data.NodeType != "" {
			return fmt.Sprintf("%s (node %s %s)", data.ExceptionMessage, data.NodeID, data.NodeType)
		}
		return data.ExceptionMessage
	}
	return ""
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}
