package services

import (
	"context"
	"yatube/internal/models"

	"gorm.io/gorm"
)

// Page 分页结果, Number 从 1 开始
type Page[T any] struct {
	Items    []T   `json:"items"`
	Number   int   `json:"number"`
	NumPages int   `json:"num_pages"`
	Total    int64 `json:"total"`
	PerPage  int   `json:"per_page"`
}

func (p Page[T]) Len() int {
	return len(p.Items)
}

func (p Page[T]) HasNext() bool {
	return p.Number < p.NumPages
}

func (p Page[T]) HasPrevious() bool {
	return p.Number > 1
}

func (p Page[T]) NextNumber() int {
	return p.Number + 1
}

func (p Page[T]) PreviousNumber() int {
	return p.Number - 1
}

// PageRange lists every page number, for paginator links.
func (p Page[T]) PageRange() []int {
	pages := make([]int, p.NumPages)
	for i := range pages {
		pages[i] = i + 1
	}
	return pages
}

// NumPages returns ceil(total/perPage), never less than 1.
func NumPages(total int64, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 1
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}

// ClampPage moves an out-of-range page number to the first or last page.
func ClampPage(page, numPages int) int {
	if page < 1 {
		return 1
	}
	if page > numPages {
		return numPages
	}
	return page
}

// paginatePosts counts and fetches one newest-first page of the posts selected by scope.
func paginatePosts(ctx context.Context, conn *gorm.DB, scope func(*gorm.DB) *gorm.DB, page, perPage int) (Page[models.Post], error) {
	var total int64
	if err := conn.WithContext(ctx).Model(&models.Post{}).Scopes(scope).Count(&total).Error; err != nil {
		return Page[models.Post]{}, err
	}

	numPages := NumPages(total, perPage)
	page = ClampPage(page, numPages)

	posts := make([]models.Post, 0, perPage)
	if total > 0 {
		err := conn.WithContext(ctx).
			Scopes(scope).
			Preload("User").
			Preload("Group").
			Order("created_at DESC").
			Order("id DESC").
			Limit(perPage).
			Offset((page - 1) * perPage).
			Find(&posts).Error
		if err != nil {
			return Page[models.Post]{}, err
		}
	}

	fillCommentCounts(ctx, conn, posts)

	return Page[models.Post]{
		Items:    posts,
		Number:   page,
		NumPages: numPages,
		Total:    total,
		PerPage:  perPage,
	}, nil
}

// fillCommentCounts 批量填充帖子的评论数量
func fillCommentCounts(ctx context.Context, conn *gorm.DB, posts []models.Post) {
	if len(posts) == 0 {
		return
	}

	postIDs := make([]uint, len(posts))
	for i, p := range posts {
		postIDs[i] = p.ID
	}

	type CountResult struct {
		PostID uint
		Count  int
	}
	var results []CountResult
	conn.WithContext(ctx).Model(&models.Comment{}).
		Select("post_id, COUNT(*) as count").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&results)

	countMap := make(map[uint]int)
	for _, r := range results {
		countMap[r.PostID] = r.Count
	}

	for i := range posts {
		posts[i].CommentCount = countMap[posts[i].ID]
	}
}
