package handlers

import (
	"net/http"

	"github.com/shwemart/shwemart/internal/config"
	"github.com/shwemart/shwemart/internal/errs"
	"github.com/shwemart/shwemart/internal/jobs"
	"github.com/shwemart/shwemart/internal/middleware"
	"github.com/shwemart/shwemart/internal/repository"
	"github.com/shwemart/shwemart/internal/storage"
	"github.com/sirupsen/logrus"
)

type ProfileHandlers struct {
	users      *repository.UserRepository
	files      *storage.Storage
	dispatcher *jobs.Dispatcher
	uploadCfg  *config.UploadConfig
	workerCfg  *config.WorkerConfig
	logger     *logrus.Logger
}

func NewProfileHandlers(
	users *repository.UserRepository,
	files *storage.Storage,
	dispatcher *jobs.Dispatcher,
	uploadCfg *config.UploadConfig,
	workerCfg *config.WorkerConfig,
	logger *logrus.Logger,
) *ProfileHandlers {
	return &ProfileHandlers{
		users:      users,
		files:      files,
		dispatcher: dispatcher,
		uploadCfg:  uploadCfg,
		workerCfg:  workerCfg,
		logger:     logger,
	}
}

// UploadProfile stores a new avatar, records its name on the user row and
// submits the optimization job once the write is through.
func (h *ProfileHandlers) UploadProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, errs.Unauthenticated("You are not an authenticated user."))
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

	name, err := saveUpload(r, "avatar", h.files, h.uploadCfg.MaxSize)
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.users.UpdateImage(r.Context(), user.Phone, name); err != nil {
		respondError(w, err)
		return
	}

	if old := user.Image; old != "" && old != name {
		if err := h.files.Remove(old); err != nil {
			h.logger.WithError(err).Warn("Failed to remove previous avatar")
		}
	}

	h.submitOptimize(r, name)

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Successfully uploaded the profile image.",
		"image":   name,
	})
}

func (h *ProfileHandlers) submitOptimize(r *http.Request, name string) {
	output := optimizedName(name)
	if _, err := h.dispatcher.SubmitImageOptimize(r.Context(), jobs.ImageOptimizePayload{
		Source:  h.files.Path(name),
		Output:  output,
		Width:   h.workerCfg.ImageWidth,
		Height:  h.workerCfg.ImageHeight,
		Quality: h.workerCfg.ImageQuality,
	}); err != nil {
		h.logger.WithError(err).Error("Failed to submit image optimize job")
	}
}
