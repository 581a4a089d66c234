package service

import (
	"context"

	"murmur/internal/feed"
	"murmur/internal/models"
	"murmur/internal/repository"
)

// timeline turns merged feed entries into a viewer-annotated page.
type timeline struct {
	likes   repository.InteractionRepository
	reposts repository.InteractionRepository
}

func (t timeline) render(ctx context.Context, viewerID uint, entries []feed.Entry, page feed.Page) ([]models.PostView, error) {
	entries = feed.Paginate(entries, page)
	ann, err := t.annotations(ctx, viewerID, feed.PostIDs(entries))
	if err != nil {
		return nil, err
	}
	return feed.Render(entries, ann), nil
}

func (t timeline) annotations(ctx context.Context, viewerID uint, postIDs []uint) (feed.Annotations, error) {
	if viewerID == 0 || len(postIDs) == 0 {
		return feed.NewAnnotations(nil, nil), nil
	}
	liked, err := t.likes.PostIDs(ctx, viewerID, postIDs)
	if err != nil {
		return feed.Annotations{}, err
	}
	reposted, err := t.reposts.PostIDs(ctx, viewerID, postIDs)
	if err != nil {
		return feed.Annotations{}, err
	}
	return feed.NewAnnotations(liked, reposted), nil
}

func interactionPostIDs(records []models.Interaction) []uint {
	ids := make([]uint, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.PostID)
	}
	return ids
}
