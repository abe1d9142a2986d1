// Package datasetns implements the "dataset" namespace (A7): directory
// iteration and bag utilities, the canonical dataset-producing primitives
// spec.md §4.6 references for dask_map (list a directory, then map a
// per-file operation over it).
package datasetns

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/voxlogica-project/voxlogica-core/internal/registry"
	"github.com/voxlogica-project/voxlogica-core/internal/vlerr"
)

// Register builds the "dataset" namespace and registers it with reg.
func Register(reg *registry.Registry) error {
	ns := registry.StaticNamespace{
		"readdir": readdir,
		"count":   count,
		"collect": collect,
	}
	if err := reg.RegisterNamespace("dataset", ns); err != nil {
		return err
	}
	reg.RegisterArgNames("dataset.readdir", "path")
	reg.RegisterArgNames("dataset.count", "bag")
	reg.RegisterArgNames("dataset.collect", "bag")
	return nil
}

func readdir(args map[string]registry.Value) (registry.Value, error) {
	path, ok := args["path"].(string)
	if !ok {
		return nil, vlerr.New(vlerr.PrimitiveFailure, "readdir expects a string path, got %T", args["path"])
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, vlerr.Wrap(vlerr.PrimitiveFailure, err, "readdir %q", path)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	items := make([]registry.Value, 0, len(names))
	for _, name := range names {
		items = append(items, filepath.Join(path, name))
	}
	return registry.Bag{Items: items}, nil
}

func toBag(v registry.Value) (registry.Bag, error) {
	bag, ok := v.(registry.Bag)
	if !ok {
		return registry.Bag{}, vlerr.New(vlerr.PrimitiveFailure, "expected a bag, got %T", v)
	}
	return bag, nil
}

func count(args map[string]registry.Value) (registry.Value, error) {
	bag, err := toBag(args["bag"])
	if err != nil {
		return nil, err
	}
	return float64(len(bag.Items)), nil
}

// collect materializes a bag into a plain value slice, for print/save or
// tests that need the fully realized contents rather than a streaming view.
func collect(args map[string]registry.Value) (registry.Value, error) {
	bag, err := toBag(args["bag"])
	if err != nil {
		return nil, err
	}
	out := make([]registry.Value, len(bag.Items))
	copy(out, bag.Items)
	return out, nil
}
