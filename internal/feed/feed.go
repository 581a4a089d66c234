// Package feed assembles ordered, viewer-annotated post views from candidate
// posts. It performs no I/O.
package feed

import (
	"fmt"
	"sort"
	"time"

	"murmur/internal/models"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
	// MaxWindow bounds Offset+Limit. Every source query fetches Window rows
	// and the store caps a single list query at this size.
	MaxWindow = 1000
)

// Entry is one feed item: a post at its effective timestamp. For a repost
// the timestamp is the repost time and RepostedBy is set.
type Entry struct {
	Post       *models.Post
	At         time.Time
	RepostedBy *models.User
}

// Authored wraps posts as entries at their creation time, keeping order.
func Authored(posts []models.Post) []Entry {
	out := make([]Entry, 0, len(posts))
	for i := range posts {
		out = append(out, Entry{Post: &posts[i], At: posts[i].CreatedAt})
	}
	return out
}

// Reposted turns repost records into entries at the repost time. Records
// whose post is missing from posts are skipped. by may be nil.
func Reposted(records []models.Interaction, posts []models.Post, by *models.User) []Entry {
	byID := indexPosts(posts)
	out := make([]Entry, 0, len(records))
	for _, r := range records {
		p, ok := byID[r.PostID]
		if !ok {
			continue
		}
		out = append(out, Entry{Post: p, At: r.CreatedAt, RepostedBy: by})
	}
	return out
}

// Ordered returns posts in the order of records, at their original creation
// time. Used for liked-post lists, which follow like time.
func Ordered(records []models.Interaction, posts []models.Post) []Entry {
	byID := indexPosts(posts)
	out := make([]Entry, 0, len(records))
	for _, r := range records {
		if p, ok := byID[r.PostID]; ok {
			out = append(out, Entry{Post: p, At: p.CreatedAt})
		}
	}
	return out
}

func indexPosts(posts []models.Post) map[uint]*models.Post {
	byID := make(map[uint]*models.Post, len(posts))
	for i := range posts {
		byID[posts[i].ID] = &posts[i]
	}
	return byID
}

// Merge concatenates the groups and sorts newest first. The sort is stable:
// equal timestamps keep group order, then order within a group.
func Merge(groups ...[]Entry) []Entry {
	n := 0
	for _, g := range groups {
		n += len(g)
	}
	out := make([]Entry, 0, n)
	for _, g := range groups {
		out = append(out, g...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].At.After(out[j].At)
	})
	return out
}

// PostIDs returns the distinct post ids of entries in first-seen order.
func PostIDs(entries []Entry) []uint {
	seen := make(map[uint]struct{}, len(entries))
	ids := make([]uint, 0, len(entries))
	for _, e := range entries {
		if _, ok := seen[e.Post.ID]; ok {
			continue
		}
		seen[e.Post.ID] = struct{}{}
		ids = append(ids, e.Post.ID)
	}
	return ids
}

// Page is a limit/offset window over a merged feed.
type Page struct {
	Limit  int
	Offset int
}

// NewPage clamps limit to [1, MaxLimit], defaulting to DefaultLimit, and
// offset to non-negative.
func NewPage(limit, offset int) Page {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return Page{Limit: limit, Offset: offset}
}

// Window is how many rows each source must supply so that the page is exact
// after merging.
func (p Page) Window() int {
	return p.Offset + p.Limit
}

// Validate rejects pages reaching past MaxWindow, which could not be served
// exactly.
func (p Page) Validate() error {
	if p.Window() > MaxWindow {
		return models.NewValidationError(fmt.Sprintf("Offset plus limit must not exceed %d.", MaxWindow))
	}
	return nil
}

// Paginate slices entries to the page.
func Paginate(entries []Entry, p Page) []Entry {
	if p.Offset >= len(entries) {
		return []Entry{}
	}
	end := p.Offset + p.Limit
	if end > len(entries) {
		end = len(entries)
	}
	return entries[p.Offset:end]
}

// Annotations are the viewer's like and repost sets.
type Annotations struct {
	liked    map[uint]struct{}
	reposted map[uint]struct{}
}

func NewAnnotations(likedIDs, repostedIDs []uint) Annotations {
	return Annotations{liked: toSet(likedIDs), reposted: toSet(repostedIDs)}
}

func (a Annotations) controls(postID uint) models.PostControls {
	_, liked := a.liked[postID]
	_, reposted := a.reposted[postID]
	return models.PostControls{IsLiked: liked, IsReposted: reposted}
}

func toSet(ids []uint) map[uint]struct{} {
	s := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Render maps entries to views annotated for the viewer. It never returns nil.
func Render(entries []Entry, ann Annotations) []models.PostView {
	out := make([]models.PostView, 0, len(entries))
	for _, e := range entries {
		out = append(out, RenderOne(e, ann))
	}
	return out
}

// RenderOne maps a single entry.
func RenderOne(e Entry, ann Annotations) models.PostView {
	v := models.NewPostView(e.Post)
	v.Controls = ann.controls(e.Post.ID)
	if e.RepostedBy != nil {
		at := e.At
		by := models.NewUserSummary(e.RepostedBy)
		v.RepostedAt = &at
		v.RepostedBy = &by
	}
	return v
}
