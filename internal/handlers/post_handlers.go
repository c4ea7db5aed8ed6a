package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/shwemart/shwemart/internal/cache"
	"github.com/shwemart/shwemart/internal/errs"
	"github.com/shwemart/shwemart/internal/models"
	"github.com/shwemart/shwemart/internal/repository"
	"github.com/sirupsen/logrus"
)

// cacheTTL is only a safety net; entries are removed by explicit
// invalidation jobs, not by expiry.
const cacheTTL = 15 * time.Minute

type PostHandlers struct {
	posts  *repository.PostRepository
	cache  *cache.Cache
	logger *logrus.Logger
}

func NewPostHandlers(posts *repository.PostRepository, c *cache.Cache, logger *logrus.Logger) *PostHandlers {
	return &PostHandlers{
		posts:  posts,
		cache:  c,
		logger: logger,
	}
}

func (h *PostHandlers) GetPost(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, err)
		return
	}

	key := fmt.Sprintf("posts:%d", id)
	post, err := cache.GetOrCompute(r.Context(), h.cache, key, cacheTTL, func(ctx context.Context) (*models.Post, error) {
		return h.posts.GetByID(ctx, id)
	})
	if err != nil {
		respondError(w, err)
		return
	}
	if post == nil {
		respondError(w, errs.NotFound("This post does not exist."))
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Post detail.",
		"post":    post,
	})
}

// GetPostsByPagination serves offset pagination. One extra row is fetched
// to probe for a next page.
func (h *PostHandlers) GetPostsByPagination(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 1)
	if err != nil {
		respondError(w, err)
		return
	}
	limit, err := queryInt(r, "limit", 5)
	if err != nil {
		respondError(w, err)
		return
	}

	skip := (page - 1) * limit
	key := cache.KeyFromQuery("posts", r.URL.Query())
	posts, err := cache.GetOrCompute(r.Context(), h.cache, key, cacheTTL, func(ctx context.Context) ([]models.Post, error) {
		return h.posts.ListOffset(ctx, int32(skip), int32(limit)+1)
	})
	if err != nil {
		respondError(w, err)
		return
	}

	hasNextPage := len(posts) > int(limit)
	if hasNextPage {
		posts = posts[:limit]
	}

	var nextPage, previousPage interface{}
	if hasNextPage {
		nextPage = page + 1
	}
	if page > 1 {
		previousPage = page - 1
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":      "Get all posts.",
		"currentPage":  page,
		"hasNextPage":  hasNextPage,
		"previousPage": previousPage,
		"nextPage":     nextPage,
		"posts":        posts,
	})
}

// GetInfinitePosts serves cursor pagination ordered by descending id.
func (h *PostHandlers) GetInfinitePosts(w http.ResponseWriter, r *http.Request) {
	cursor, err := queryInt64(r, "cursor", 0)
	if err != nil {
		respondError(w, err)
		return
	}
	limit, err := queryInt(r, "limit", 5)
	if err != nil {
		respondError(w, err)
		return
	}

	key := cache.KeyFromQuery("posts", r.URL.Query())
	posts, err := cache.GetOrCompute(r.Context(), h.cache, key, cacheTTL, func(ctx context.Context) ([]models.Post, error) {
		return h.posts.List(ctx, int32(limit)+1, cursor)
	})
	if err != nil {
		respondError(w, err)
		return
	}

	hasNextPage := len(posts) > int(limit)
	if hasNextPage {
		posts = posts[:limit]
	}

	var nextCursor interface{}
	if len(posts) > 0 {
		nextCursor = posts[len(posts)-1].ID
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":     "Get all infinite posts.",
		"hasNextPage": hasNextPage,
		"nextCursor":  nextCursor,
		"posts":       posts,
	})
}

func pathID(r *http.Request) (int64, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errs.Invalid("ID must be a positive integer.")
	}
	return id, nil
}

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return 0, errs.Invalid(name + " must be a positive integer.")
	}
	return value, nil
}

func queryInt64(r *http.Request, name string, fallback int64) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return 0, errs.Invalid(name + " must be a positive integer.")
	}
	return value, nil
}
