package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/shwemart/shwemart/internal/config"
	"github.com/shwemart/shwemart/internal/errs"
	"github.com/shwemart/shwemart/internal/jobs"
	"github.com/shwemart/shwemart/internal/middleware"
	"github.com/shwemart/shwemart/internal/models"
	"github.com/shwemart/shwemart/internal/repository"
	"github.com/shwemart/shwemart/internal/storage"
	"github.com/sirupsen/logrus"
)

// AdminHandlers owns the mutating side of the content and catalog APIs.
// Every mutation submits a cache invalidation job for the affected prefix
// after its write has gone through.
type AdminHandlers struct {
	posts      *repository.PostRepository
	products   *repository.ProductRepository
	files      *storage.Storage
	dispatcher *jobs.Dispatcher
	uploadCfg  *config.UploadConfig
	workerCfg  *config.WorkerConfig
	logger     *logrus.Logger
}

func NewAdminHandlers(
	posts *repository.PostRepository,
	products *repository.ProductRepository,
	files *storage.Storage,
	dispatcher *jobs.Dispatcher,
	uploadCfg *config.UploadConfig,
	workerCfg *config.WorkerConfig,
	logger *logrus.Logger,
) *AdminHandlers {
	return &AdminHandlers{
		posts:      posts,
		products:   products,
		files:      files,
		dispatcher: dispatcher,
		uploadCfg:  uploadCfg,
		workerCfg:  workerCfg,
		logger:     logger,
	}
}

func (h *AdminHandlers) CreatePost(w http.ResponseWriter, r *http.Request) {
	author, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondError(w, errs.Unauthenticated("You are not an authenticated user."))
		return
	}

	image, err := saveUpload(r, "image", h.files, h.uploadCfg.MaxSize)
	if err != nil {
		respondError(w, err)
		return
	}

	form := r.MultipartForm.Value
	post := &models.Post{
		Title:    formValue(form, "title"),
		Content:  formValue(form, "content"),
		Body:     formValue(form, "body"),
		Image:    image,
		AuthorID: author.ID,
		Author:   author.Phone,
		Category: formValue(form, "category"),
		Type:     formValue(form, "type"),
		Tags:     splitList(formValue(form, "tags")),
	}
	if post.Title == "" || post.Content == "" || post.Body == "" || post.Category == "" || post.Type == "" {
		respondError(w, errs.Invalid("Title, content, body, category and type are required."))
		return
	}

	if err := h.posts.Create(r.Context(), post); err != nil {
		respondError(w, err)
		return
	}

	h.submitOptimize(r, image)
	h.submitInvalidate(r, "posts:*")

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Successfully created a post.",
		"postId":  post.ID,
	})
}

type UpdatePostRequest struct {
	ID       int64    `json:"id" validate:"required,gt=0"`
	Title    string   `json:"title" validate:"required"`
	Content  string   `json:"content" validate:"required"`
	Body     string   `json:"body" validate:"required"`
	Category string   `json:"category" validate:"required"`
	Type     string   `json:"type" validate:"required"`
	Tags     []string `json:"tags"`
}

func (h *AdminHandlers) UpdatePost(w http.ResponseWriter, r *http.Request) {
	var req UpdatePostRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err)
		return
	}

	post, err := h.posts.GetByID(r.Context(), req.ID)
	if err != nil {
		respondError(w, err)
		return
	}
	if post == nil {
		respondError(w, errs.NotFound("This post does not exist."))
		return
	}

	post.Title = req.Title
	post.Content = req.Content
	post.Body = req.Body
	post.Category = req.Category
	post.Type = req.Type
	post.Tags = req.Tags

	if err := h.posts.Update(r.Context(), post); err != nil {
		respondError(w, err)
		return
	}

	h.submitInvalidate(r, "posts:*")

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Successfully updated the post.",
		"postId":  post.ID,
	})
}

func (h *AdminHandlers) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, err)
		return
	}

	post, err := h.posts.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	if post == nil {
		respondError(w, errs.NotFound("This post does not exist."))
		return
	}

	if err := h.posts.Delete(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}

	if post.Image != "" {
		if err := h.files.Remove(post.Image); err != nil {
			h.logger.WithError(err).Warn("Failed to remove post image")
		}
	}

	h.submitInvalidate(r, "posts:*")

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Successfully deleted the post.",
	})
}

func (h *AdminHandlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	image, err := saveUpload(r, "image", h.files, h.uploadCfg.MaxSize)
	if err != nil {
		respondError(w, err)
		return
	}

	form := r.MultipartForm.Value
	price, err := formFloat(form, "price")
	if err != nil {
		respondError(w, err)
		return
	}
	discount, err := formFloat(form, "discount")
	if err != nil {
		respondError(w, err)
		return
	}
	inventory, err := strconv.Atoi(formValue(form, "inventory"))
	if err != nil || inventory < 0 {
		respondError(w, errs.Invalid("Inventory must be a non-negative integer."))
		return
	}

	product := &models.Product{
		Name:        formValue(form, "name"),
		Description: formValue(form, "description"),
		Price:       price,
		Discount:    discount,
		Inventory:   inventory,
		Category:    formValue(form, "category"),
		Type:        formValue(form, "type"),
		Tags:        splitList(formValue(form, "tags")),
		Images:      []string{image},
	}
	if product.Name == "" || product.Description == "" || product.Category == "" || product.Type == "" {
		respondError(w, errs.Invalid("Name, description, category and type are required."))
		return
	}

	if err := h.products.Create(r.Context(), product); err != nil {
		respondError(w, err)
		return
	}

	h.submitOptimize(r, image)
	h.submitInvalidate(r, "products:*")

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":   "Successfully created a product.",
		"productId": product.ID,
	})
}

type UpdateProductRequest struct {
	ID          int64    `json:"id" validate:"required,gt=0"`
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description" validate:"required"`
	Price       float64  `json:"price" validate:"gte=0"`
	Discount    float64  `json:"discount" validate:"gte=0"`
	Inventory   int      `json:"inventory" validate:"gte=0"`
	Category    string   `json:"category" validate:"required"`
	Type        string   `json:"type" validate:"required"`
	Tags        []string `json:"tags"`
}

func (h *AdminHandlers) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req UpdateProductRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err)
		return
	}

	product, err := h.products.GetByID(r.Context(), req.ID)
	if err != nil {
		respondError(w, err)
		return
	}
	if product == nil {
		respondError(w, errs.NotFound("This product does not exist."))
		return
	}

	product.Name = req.Name
	product.Description = req.Description
	product.Price = req.Price
	product.Discount = req.Discount
	product.Inventory = req.Inventory
	product.Category = req.Category
	product.Type = req.Type
	product.Tags = req.Tags

	if err := h.products.Update(r.Context(), product); err != nil {
		respondError(w, err)
		return
	}

	h.submitInvalidate(r, "products:*")

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":   "Successfully updated the product.",
		"productId": product.ID,
	})
}

func (h *AdminHandlers) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, err)
		return
	}

	product, err := h.products.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	if product == nil {
		respondError(w, errs.NotFound("This product does not exist."))
		return
	}

	if err := h.products.Delete(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}

	for _, image := range product.Images {
		if err := h.files.Remove(image); err != nil {
			h.logger.WithError(err).Warn("Failed to remove product image")
		}
	}

	h.submitInvalidate(r, "products:*")

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Successfully deleted the product.",
	})
}

func (h *AdminHandlers) submitOptimize(r *http.Request, name string) {
	if _, err := h.dispatcher.SubmitImageOptimize(r.Context(), jobs.ImageOptimizePayload{
		Source:  h.files.Path(name),
		Output:  optimizedName(name),
		Width:   h.workerCfg.ImageWidth,
		Height:  h.workerCfg.ImageHeight,
		Quality: h.workerCfg.ImageQuality,
	}); err != nil {
		h.logger.WithError(err).Error("Failed to submit image optimize job")
	}
}

func (h *AdminHandlers) submitInvalidate(r *http.Request, pattern string) {
	if _, err := h.dispatcher.SubmitCacheInvalidate(r.Context(), pattern); err != nil {
		h.logger.WithError(err).Error("Failed to submit cache invalidate job")
	}
}

func formValue(form map[string][]string, name string) string {
	if values, ok := form[name]; ok && len(values) > 0 {
		return strings.TrimSpace(values[0])
	}
	return ""
}

func formFloat(form map[string][]string, name string) (float64, error) {
	raw := formValue(form, name)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value < 0 {
		return 0, errs.Invalid(name + " must be a non-negative number.")
	}
	return value, nil
}
