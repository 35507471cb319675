// Package report builds and renders a leak report from a registry
// snapshot: the call-site trees a host reads to find where it is
// leaking memory.
package report

import (
	"bytes"
	"context"
	"encoding/json"
	"html/template"
	"io"

	log "github.com/rs/zerolog"

	"github.com/maxgio92/tracey/pkg/registry"
	"github.com/maxgio92/tracey/pkg/symtable"
	"github.com/maxgio92/tracey/pkg/tree"
)

const (
	ToolName = "tracey"
	ToolURL  = "https://github.com/maxgio92/tracey"
)

// Report is a fully built, symbolized leak report.
type Report struct {
	Leaks       uint64 `json:"leaks"`
	WastedBytes uint64 `json:"wasted_bytes"`
	TotalAllocs uint64 `json:"total_allocs"`
	Score       string `json:"score"`

	// RootToLeaf walks every leaked call site from its oldest caller
	// down to the exact allocation site.
	RootToLeaf *tree.Node[string, uint64] `json:"root_to_leaf"`

	// LeafToRoot walks the same call sites from the allocation site
	// back up to its oldest caller, the more useful view when many
	// different call chains funnel into the same leaking function.
	LeafToRoot *tree.Node[string, uint64] `json:"leaf_to_root"`
}

// Resolver resolves program counters to display names. *symtable.
// Resolver satisfies it; tests can substitute a stub.
type Resolver interface {
	Resolve(pcs []uintptr) []string
}

// Reporter builds Reports from a Registry's Snapshot.
type Reporter struct {
	reg      *registry.Registry
	resolver Resolver
	logger   log.Logger
}

// New creates a Reporter over reg, resolving symbols with resolver.
func New(reg *registry.Registry, resolver Resolver, opts ...Option) *Reporter {
	r := &Reporter{reg: reg, resolver: resolver}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Build snapshots the registry and produces a Report. The context is
// honored between the (cheap) snapshot and the (symbolization) work
// that follows it, so a caller can bound how long a report may take
// to resolve on a process with many distinct leak sites.
func (r *Reporter) Build(ctx context.Context) (*Report, error) {
	snap := r.reg.Snapshot()
	total := r.reg.TotalAllocs()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var wasted uint64
	rootToLeaf := tree.New[uintptr, uint64]()
	leafToRoot := tree.New[uintptr, uint64]()
	seen := make(map[uintptr]struct{})
	var unresolved []uintptr

	for _, e := range snap.Entries {
		wasted += e.Size
		pcs := e.Stack.PCs()
		if len(pcs) == 0 {
			continue
		}

		// Root-to-leaf: oldest caller first, so reverse the
		// innermost-first order Capture returns.
		rootPath := make([]uintptr, len(pcs))
		for i, pc := range pcs {
			rootPath[len(pcs)-1-i] = pc
		}
		rootToLeaf.Insert(rootPath...).Value += e.Size

		// Leaf-to-root: the allocation site first, in Capture's
		// native order.
		leafToRoot.Insert(pcs...).Value += e.Size

		for _, pc := range pcs {
			if _, ok := seen[pc]; !ok {
				seen[pc] = struct{}{}
				unresolved = append(unresolved, pc)
			}
		}
	}

	names := r.resolver.Resolve(unresolved)
	symbols := make(map[uintptr]string, len(unresolved))
	for i, pc := range unresolved {
		symbols[pc] = names[i]
	}

	rootToLeaf.Recalc()
	leafToRoot.Recalc()

	rep := &Report{
		Leaks:       uint64(len(snap.Entries)),
		WastedBytes: wasted,
		TotalAllocs: total,
		Score:       score(uint64(len(snap.Entries)), total),
		RootToLeaf:  tree.Rekey[uintptr, string, uint64](rootToLeaf, symbols),
		LeafToRoot:  tree.Rekey[uintptr, string, uint64](leafToRoot, symbols),
	}

	return rep, nil
}

// score grades the fraction of all-time allocations that are still
// live and unaccounted for. The thresholds and their ordering mirror
// the original tool's fixed cutoffs exactly.
func score(leaks, totalAllocs uint64) string {
	if totalAllocs == 0 {
		return "perfect"
	}

	ratio := float64(leaks) / float64(totalAllocs)

	switch {
	case ratio == 0:
		return "perfect"
	case ratio <= 0.0125:
		return "excellent"
	case ratio <= 0.025:
		return "good"
	case ratio <= 0.05:
		return "poor"
	case ratio <= 0.10:
		return "mediocre"
	default:
		return "lame"
	}
}

// WriteJSON dumps the report as JSON, for machine consumption.
func (r *Report) WriteJSON(w io.Writer) error {
	encoder := json.NewEncoder(w)
	return encoder.Encode(r)
}

var htmlTemplate = template.Must(template.New("report").Parse(`<html>
<head><title>{{.ToolName}} report</title></head>
<body>
<xmp>
{{.ToolName}} - {{.ToolURL}}

leaks: {{.Report.Leaks}}
wasted bytes: {{.Report.WastedBytes}}
total allocations: {{.Report.TotalAllocs}}
score: {{.Report.Score}}

== root to leaf ==
{{.RootToLeafDump}}

== leaf to root ==
{{.LeafToRootDump}}
</xmp>
</body>
</html>
`))

// WriteHTML renders the report as the xmp-wrapped text page hosts can
// show directly in a browser.
func (r *Report) WriteHTML(w io.Writer) error {
	var rootBuf, leafBuf bytes.Buffer
	r.RootToLeaf.Walk(&rootBuf, nil)
	r.LeafToRoot.Walk(&leafBuf, nil)

	return htmlTemplate.Execute(w, struct {
		ToolName       string
		ToolURL        string
		Report         *Report
		RootToLeafDump string
		LeafToRootDump string
	}{
		ToolName:       ToolName,
		ToolURL:        ToolURL,
		Report:         r,
		RootToLeafDump: rootBuf.String(),
		LeafToRootDump: leafBuf.String(),
	})
}

// resolverFunc adapts a plain function to the Resolver interface, for
// callers (e.g. tests) that don't need a full *symtable.Resolver.
type resolverFunc func([]uintptr) []string

func (f resolverFunc) Resolve(pcs []uintptr) []string { return f(pcs) }

var _ Resolver = (*symtable.Resolver)(nil)
