package syncer

import (
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"

	"github.com/alexmiron/podium/pkg/archive"
	"github.com/alexmiron/podium/pkg/extract"
	"github.com/alexmiron/podium/pkg/normalize"
)

// CleanStats summarizes a re-normalization pass.
type CleanStats struct {
	Examined  int
	Dirty     int
	Rewritten int
	Failed    int
}

// Clean re-applies the current normalization rules to already-archived
// records in a date range. Records persisted before a rule existed can still
// carry site artifacts in their dialogue; this rewrites them in place without
// refetching anything. With dryRun set, dirty records are only counted.
func Clean(ctx context.Context, db *archive.DB, from, to, primarySpeaker string, dryRun bool, log *logrus.Logger) (CleanStats, error) {
	var stats CleanStats

	records, err := db.ListFull(ctx, from, to)
	if err != nil {
		return stats, err
	}

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Examined++

		if !normalize.HasResidualArtifacts(rec.Dialogue) {
			continue
		}
		stats.Dirty++
		log.Debugf("dirty record %s (%s)", rec.Reference, rec.EventDate)
		if dryRun {
			continue
		}

		sections := extract.ParseSpeakerSections(rec.Dialogue)
		if len(sections) == 0 {
			log.Warnf("could not re-segment %s, leaving as is", rec.Reference)
			stats.Failed++
			continue
		}
		res := normalize.Assemble(sections, primarySpeaker)
		if res.WordCount == 0 {
			log.Warnf("re-normalizing %s produced empty dialogue, leaving as is", rec.Reference)
			stats.Failed++
			continue
		}

		speakers, err := json.Marshal(res.Speakers)
		if err != nil {
			return stats, err
		}
		if err := db.UpdateNormalized(ctx, rec.ID, res.DialogueText, string(speakers),
			res.WordCount, res.PrimarySpeakerWordCount); err != nil {
			return stats, err
		}
		stats.Rewritten++
	}

	log.Infof("clean pass: %d examined, %d dirty, %d rewritten, %d failed",
		stats.Examined, stats.Dirty, stats.Rewritten, stats.Failed)
	return stats, nil
}
