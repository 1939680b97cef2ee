// Package transform runs one generation pass over a presets document.
package transform

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/thirtytwobits/the-cmake-preset-matrix/internal/document"
	"github.com/thirtytwobits/the-cmake-preset-matrix/internal/matrix"
	"github.com/thirtytwobits/the-cmake-preset-matrix/internal/pquery"
	"github.com/thirtytwobits/the-cmake-preset-matrix/internal/presets"
)

// Options control a generation pass.
type Options struct {
	// Clean is the clean level passed to matrix.Merge.
	Clean int
	Log   zerolog.Logger
}

// InPlace regenerates every group of meta's source document and returns the
// names of the groups that were skipped because the document has no
// collection for them.
//
// The configure group is generated first: hidden base records, a render
// pass so later expressions can read them, then the visible matrix. The
// remaining groups follow in order, each preceded by a render pass, and a
// final render pass lets records refer to groups generated after them.
func InPlace(meta *presets.Presets, opts Options) ([]string, error) {
	log := opts.Log
	r := pquery.NewRenderer(pquery.WithLogger(log))
	gen := matrix.New(meta, matrix.WithRenderer(r), matrix.WithLogger(log))
	keys := presets.CollectionKeys()

	for _, expr := range meta.OnLoad {
		log.Debug().Str("locator", expr.Locator.String()).Msg("on-load")
		if _, err := r.Evaluate(meta.Source, expr.Locator, expr.Text); err != nil {
			return nil, fmt.Errorf("on-load: %w", err)
		}
	}

	var skipped []string
	for _, name := range presets.GroupNames {
		v, ok := meta.Source.Get(presets.CollectionKey(name))
		switch {
		case !ok && name == presets.Configure:
			meta.Source.Set(presets.CollectionKey(name), document.NewSeq())
		case !ok:
			skipped = append(skipped, name)
		case v.Kind() != document.KindSeq:
			return nil, fmt.Errorf("%s: expected a list, found a %s", presets.CollectionKey(name), v.Kind())
		}
	}

	configure := meta.Group(presets.Configure)
	if err := generate(meta, gen, configure, true, opts); err != nil {
		return nil, err
	}
	if err := r.Render(meta.Source, keys...); err != nil {
		return nil, err
	}
	if err := generate(meta, gen, configure, false, opts); err != nil {
		return nil, err
	}

	for _, group := range meta.Groups() {
		if group.Name == presets.Configure {
			continue
		}
		if !meta.Source.Has(presets.CollectionKey(group.Name)) {
			log.Info().Str("group", presets.CollectionKey(group.Name)).Msg("skipping group, missing in source document")
			continue
		}
		if err := r.Render(meta.Source, keys...); err != nil {
			return nil, err
		}
		if err := generate(meta, gen, group, false, opts); err != nil {
			return nil, err
		}
	}

	if err := r.Render(meta.Source, keys...); err != nil {
		return nil, err
	}
	return skipped, nil
}

func generate(meta *presets.Presets, gen *matrix.Generator, group *presets.Group, hidden bool, opts Options) error {
	produce := gen.Visible
	if hidden {
		produce = gen.Hidden
	}
	records, err := produce(group)
	if err != nil {
		return fmt.Errorf("%s group: %w", group.Name, err)
	}
	merged := matrix.Merge(meta.Records(group.Name), records, group, meta.Separator, hidden, opts.Clean)
	meta.Source.Set(presets.CollectionKey(group.Name), merged)
	opts.Log.Info().
		Str("group", group.Name).
		Bool("hidden", hidden).
		Int("count", len(records)).
		Int("total", merged.Len()).
		Msg("merged presets")
	return nil
}
