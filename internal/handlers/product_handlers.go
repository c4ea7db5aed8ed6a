package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/shwemart/shwemart/internal/cache"
	"github.com/shwemart/shwemart/internal/errs"
	"github.com/shwemart/shwemart/internal/jobs"
	"github.com/shwemart/shwemart/internal/middleware"
	"github.com/shwemart/shwemart/internal/models"
	"github.com/shwemart/shwemart/internal/repository"
	"github.com/sirupsen/logrus"
)

type ProductHandlers struct {
	products   *repository.ProductRepository
	taxonomy   *repository.TaxonomyRepository
	users      *repository.UserRepository
	cache      *cache.Cache
	dispatcher *jobs.Dispatcher
	logger     *logrus.Logger
}

func NewProductHandlers(
	products *repository.ProductRepository,
	taxonomy *repository.TaxonomyRepository,
	users *repository.UserRepository,
	c *cache.Cache,
	dispatcher *jobs.Dispatcher,
	logger *logrus.Logger,
) *ProductHandlers {
	return &ProductHandlers{
		products:   products,
		taxonomy:   taxonomy,
		users:      users,
		cache:      c,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

func (h *ProductHandlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, err)
		return
	}

	key := fmt.Sprintf("products:%d", id)
	product, err := cache.GetOrCompute(r.Context(), h.cache, key, cacheTTL, func(ctx context.Context) (*models.Product, error) {
		return h.products.GetByID(ctx, id)
	})
	if err != nil {
		respondError(w, err)
		return
	}
	if product == nil {
		respondError(w, errs.NotFound("This product does not exist."))
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Product detail.",
		"product": product,
	})
}

// GetProductsByPagination serves cursor pagination with optional
// comma-separated category and type filters.
func (h *ProductHandlers) GetProductsByPagination(w http.ResponseWriter, r *http.Request) {
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

	filter := repository.ProductFilter{
		Categories: splitList(r.URL.Query().Get("category")),
		Types:      splitList(r.URL.Query().Get("type")),
	}

	key := cache.KeyFromQuery("products", r.URL.Query())
	products, err := cache.GetOrCompute(r.Context(), h.cache, key, cacheTTL, func(ctx context.Context) ([]models.Product, error) {
		return h.products.List(ctx, int32(limit)+1, cursor, filter)
	})
	if err != nil {
		respondError(w, err)
		return
	}

	hasNextPage := len(products) > int(limit)
	if hasNextPage {
		products = products[:limit]
	}

	var newCursor interface{}
	if len(products) > 0 {
		newCursor = products[len(products)-1].ID
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":     "Get all infinite products.",
		"hasNextPage": hasNextPage,
		"newCursor":   newCursor,
		"products":    products,
	})
}

// GetFilterType lists the category and type names available for filtering.
func (h *ProductHandlers) GetFilterType(w http.ResponseWriter, r *http.Request) {
	categories, err := h.taxonomy.ListCategories(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	types, err := h.taxonomy.ListTypes(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":    "Category and type list.",
		"categories": categories,
		"types":      types,
	})
}

type ToggleFavoriteRequest struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
	Favorite  bool  `json:"favorite"`
}

// ToggleFavorite connects or disconnects a product from the user's favorite
// set, then submits a cache invalidation job. The job runs strictly after
// the write it depends on has gone through.
func (h *ProductHandlers) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, errs.Unauthenticated("You are not an authenticated user."))
		return
	}

	var req ToggleFavoriteRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err)
		return
	}

	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}
	if user == nil {
		respondError(w, errs.Unauthenticated("This account has not registered."))
		return
	}

	product, err := h.products.GetByID(r.Context(), req.ProductID)
	if err != nil {
		respondError(w, err)
		return
	}
	if product == nil {
		respondError(w, errs.NotFound("This product does not exist."))
		return
	}

	message := "Successfully removed the product from favorites."
	if req.Favorite {
		err = h.users.AddFavorite(r.Context(), user.Phone, req.ProductID)
		message = "Successfully added the product to favorites."
	} else {
		err = h.users.RemoveFavorite(r.Context(), user.Phone, req.ProductID)
	}
	if err != nil {
		respondError(w, err)
		return
	}

	if _, err := h.dispatcher.SubmitCacheInvalidate(r.Context(), "products:*"); err != nil {
		h.logger.WithError(err).Error("Failed to submit cache invalidation after favorite toggle")
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": message,
	})
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
