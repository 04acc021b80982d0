package service

import (
	"encoding/json"
	"log/slog"

	"comfyrun/internal/core/domain"
	"comfyrun/internal/transcode"
)

// outputKeys are the file lists a node output object may carry, in visit order.
var outputKeys = []string{"images", "gifs", "audio"}

type rawDescriptor struct {
	Filename  string `json:"filename"`
	Subfolder string `json:"subfolder"`
	Type      string `json:"type"`
}

// Resolver turns completed node outputs into the descriptors to fetch.
type Resolver struct {
	logger *slog.Logger
}

// NewResolver creates a new Resolver.
func NewResolver(logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{logger: logger}
}

// Resolve flattens outputs node by node and keeps only descriptors stored as
// output or temp whose extension is allowed. Rejected descriptors are dropped.
func (r *Resolver) Resolve(outputs []domain.NodeOutput, allowed map[string]bool) []domain.OutputDescriptor {
	var out []domain.OutputDescriptor
	for _, node := range outputs {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(node.Output, &fields); err != nil {
			r.logger.Warn("job.resolve.bad_node", "node_id", node.NodeID, "error", err)
			continue
		}
		for _, key := range outputKeys {
			raw, ok := fields[key]
			if !ok {
				continue
			}
			var files []rawDescriptor
			if err := json.Unmarshal(raw, &files); err != nil {
				r.logger.Warn("job.resolve.bad_list", "node_id", node.NodeID, "key", key, "error", err)
				continue
			}
			for _, f := range files {
				d := domain.OutputDescriptor{
					Filename:  f.Filename,
					Subfolder: f.Subfolder,
					Type:      domain.ParseLocationKind(f.Type),
				}
				if !accepted(d, allowed) {
					r.logger.Debug("job.resolve.skip", "node_id", node.NodeID, "filename", d.Filename, "type", f.Type)
					continue
				}
				out = append(out, d)
			}
		}
	}
	return out
}

func accepted(d domain.OutputDescriptor, allowed map[string]bool) bool {
	if d.Filename == "" {
		return false
	}
	if d.Type != domain.LocationOutput && d.Type != domain.LocationTemp {
		return false
	}
	return allowed[transcode.Extension(d.Filename)]
}
