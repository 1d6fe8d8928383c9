package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/toposcope/internal/ctxlog"
	"github.com/vk/toposcope/internal/fsutil"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// Load reads every .hcl file under paths (files are taken as given,
// directories are searched recursively) and returns the merged settings.
func Load(ctx context.Context, paths ...string) (Settings, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := fsutil.FindFilesByExtension(".hcl", paths...)
	if err != nil {
		return Settings{}, err
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()
	evalCtx := newEvalContext(os.Environ())
	settings := Default()

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return Settings{}, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}
		if err := decodeInto(&settings, hclFile.Body, evalCtx); err != nil {
			return Settings{}, fmt.Errorf("failed to decode HCL file %s: %w", file, err)
		}
	}

	if err := validateSeed(settings.Seed); err != nil {
		return Settings{}, err
	}

	logger.Debug("HCL loading complete.", "files", len(files), "seed_nodes", len(settings.Seed.Nodes), "seed_edges", len(settings.Seed.Edges))
	return settings, nil
}

// Parse decodes a single HCL document held in memory. filename is used in
// diagnostics only.
func Parse(src []byte, filename string) (Settings, error) {
	hclFile, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return Settings{}, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}

	settings := Default()
	if err := decodeInto(&settings, hclFile.Body, newEvalContext(os.Environ())); err != nil {
		return Settings{}, fmt.Errorf("failed to decode HCL file %s: %w", filename, err)
	}
	if err := validateSeed(settings.Seed); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

func decodeInto(s *Settings, body hcl.Body, evalCtx *hcl.EvalContext) error {
	var root fileRoot
	if diags := gohcl.DecodeBody(body, evalCtx, &root); diags.HasErrors() {
		return diags
	}
	return s.merge(&root)
}

// newEvalContext exposes environ as the `env` object together with a few
// string and list helpers.
func newEvalContext(environ []string) *hcl.EvalContext {
	vars := make(map[string]cty.Value, len(environ))
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" || !hclIdentifier(k) {
			continue
		}
		vars[k] = cty.StringVal(v)
	}

	env := cty.EmptyObjectVal
	if len(vars) > 0 {
		env = cty.ObjectVal(vars)
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": env},
		Functions: map[string]function.Function{
			"format":   stdlib.FormatFunc,
			"upper":    stdlib.UpperFunc,
			"lower":    stdlib.LowerFunc,
			"concat":   stdlib.ConcatFunc,
			"range":    stdlib.RangeFunc,
			"coalesce": stdlib.CoalesceFunc,
		},
	}
}

// hclIdentifier reports whether name can be used after `env.`.
func hclIdentifier(name string) bool {
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r == '-' || (r >= '0' && r <= '9')):
		default:
			return false
		}
	}
	return true
}
