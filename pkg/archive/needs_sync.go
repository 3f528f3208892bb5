package archive

import (
	"context"

	"github.com/alexmiron/podium/pkg/discover"
	"github.com/alexmiron/podium/pkg/normalize"
)

// NeedsSync filters discovered candidates down to those that still need
// scraping: references absent from the archive, records that are empty or
// malformed, and records whose dialogue still carries stripped-artifact
// signatures from before the normalization rules were complete.
func (d *DB) NeedsSync(ctx context.Context, candidates []discover.Candidate) ([]discover.Candidate, error) {
	out := make([]discover.Candidate, 0, len(candidates))
	for _, cand := range candidates {
		rec, found, err := d.Lookup(ctx, cand.Ref)
		if err != nil {
			return nil, err
		}
		if !found || !rec.Valid() || normalize.HasResidualArtifacts(rec.Dialogue) {
			out = append(out, cand)
		}
	}
	return out, nil
}
