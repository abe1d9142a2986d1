// Package goals implements the Goal Handler (C8): it walks a WorkPlan's
// goals in order and either prints or saves the already-computed value each
// one points at. Save destinations are dispatched on file extension through
// a small writer table, the extension point spec §4.7/§4.12 describes for
// image-format primitives to plug into without this package knowing about
// them.
package goals

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/voxlogica-project/voxlogica-core/internal/hashid"
	"github.com/voxlogica-project/voxlogica-core/internal/registry"
	"github.com/voxlogica-project/voxlogica-core/internal/vlerr"
	"github.com/voxlogica-project/voxlogica-core/internal/workplan"
)

// WriterFunc saves value to path. Implementations decide the on-disk
// format; the registry of WriterFuncs is keyed by file extension.
type WriterFunc func(path string, value registry.Value) error

// Handler iterates a WorkPlan's goals and executes them against a results
// table the Scheduler has already populated.
type Handler struct {
	writers map[string]WriterFunc
}

// New returns a Handler with the built-in ".txt" and ".json" writers
// registered; RegisterWriter adds more (e.g. image formats) without this
// package needing to know about them.
func New() *Handler {
	h := &Handler{writers: make(map[string]WriterFunc)}
	h.RegisterWriter(".txt", writeText)
	h.RegisterWriter(".json", writeJSON)
	return h
}

// RegisterWriter adds (or replaces) the writer used for paths ending in ext
// (including the leading dot, e.g. ".png").
func (h *Handler) RegisterWriter(ext string, fn WriterFunc) {
	h.writers[ext] = fn
}

// Run executes every goal in wp against results, a NodeId → resolved-value
// table the Scheduler fills in as it executes the WorkPlan. Print goals
// write "label=value" lines to stdout; Save goals dispatch to the writer
// registered for the target path's extension; with no such writer, []byte
// and string values are written as raw bytes and anything else as JSON.
func (h *Handler) Run(wp *workplan.WorkPlan, results map[hashid.NodeID]registry.Value, stdout io.Writer) error {
	for _, g := range wp.Goals() {
		value, ok := results[g.Target]
		if !ok {
			return vlerr.ForNode(vlerr.DependencyFailed, string(g.Target), "goal target was never computed")
		}
		switch g.Kind {
		case workplan.GoalPrint:
			if _, err := fmt.Fprintf(stdout, "%s=%v\n", g.NameOrPath, value); err != nil {
				return vlerr.Wrap(vlerr.StoreError, err, "write print goal %q", g.NameOrPath)
			}
		case workplan.GoalSave:
			if err := h.save(g.NameOrPath, value); err != nil {
				return err
			}
		default:
			return vlerr.ForNode(vlerr.DependencyFailed, string(g.Target), "unknown goal kind %v", g.Kind)
		}
	}
	return nil
}

func (h *Handler) save(path string, value registry.Value) error {
	ext := filepath.Ext(path)
	writer, ok := h.writers[ext]
	if !ok {
		writer = writeRaw
	}
	if err := writer(path, value); err != nil {
		return vlerr.Wrap(vlerr.StoreError, err, "save goal %q", path)
	}
	return nil
}

func writeText(path string, value registry.Value) error {
	return os.WriteFile(path, []byte(fmt.Sprintf("%v", value)), 0o644)
}

func writeJSON(path string, value registry.Value) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func writeRaw(path string, value registry.Value) error {
	switch v := value.(type) {
	case []byte:
		return os.WriteFile(path, v, 0o644)
	case string:
		return os.WriteFile(path, []byte(v), 0o644)
	default:
		return writeJSON(path, value)
	}
}
