package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/domain"
)

// Enrichment field names reported to the Recorder.
const (
	fieldUsername     = "username"
	fieldCommentCount = "comment_count"
)

// enricher fills read-time fields from peer services. Peer failures never
// fail the read: the placeholder is substituted and the status degrades.
type enricher struct {
	users    UserDirectory
	recorder Recorder
	logger   zerolog.Logger
}

// username resolves a single author. An author the auth service does not
// know is a dangling reference, not a failure.
func (e enricher) username(ctx context.Context, userID int64) (string, domain.EnrichmentStatus) {
	summary, err := e.users.GetUser(ctx, userID)
	switch {
	case err == nil:
		if summary.Username == "" {
			return domain.UnknownUsername, domain.EnrichmentComplete
		}
		return summary.Username, domain.EnrichmentComplete
	case errors.Is(err, domain.ErrUserNotFound):
		return domain.UnknownUsername, domain.EnrichmentComplete
	default:
		e.logger.Warn().Err(err).Int64("user_id", userID).Msg("username lookup failed, using placeholder")
		e.recorder.RecordDegraded(fieldUsername)
		return domain.UnknownUsername, domain.EnrichmentDegraded
	}
}

// usernames resolves every author of a page with one batch call.
func (e enricher) usernames(ctx context.Context, userIDs []int64) (map[int64]string, domain.EnrichmentStatus) {
	ids := distinct(userIDs)
	if len(ids) == 0 {
		return nil, domain.EnrichmentComplete
	}

	names, err := e.users.GetUsernames(ctx, ids)
	if err != nil {
		e.logger.Warn().Err(err).Int("authors", len(ids)).Msg("batch username lookup failed, using placeholders")
		e.recorder.RecordDegraded(fieldUsername)
		return nil, domain.EnrichmentDegraded
	}
	return names, domain.EnrichmentComplete
}
