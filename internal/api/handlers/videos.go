package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/animathic/backend/internal/auth"
	"github.com/animathic/backend/internal/repository"
	apierrors "github.com/animathic/backend/pkg/errors"
)

// streamURLTTL is how long a presigned stream redirect stays valid.
const streamURLTTL = 15 * time.Minute

// VideosHandler serves the video listing, deletion, and streaming routes,
// every one of them scoped to the requesting user (§4.8, §8 invariant 6).
type VideosHandler struct {
	videos repository.VideoRepository
	assets repository.AssetRepository
	logger *zap.Logger
}

// NewVideosHandler constructs a VideosHandler.
func NewVideosHandler(videos repository.VideoRepository, assets repository.AssetRepository, logger *zap.Logger) *VideosHandler {
	return &VideosHandler{videos: videos, assets: assets, logger: logger}
}

// ListVideos handles GET /api/videos.
func (h *VideosHandler) ListVideos(c *gin.Context) {
	userID := auth.MustGetUserID(c)

	videos, err := h.videos.ListVideos(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("list videos", zap.Error(err))
		c.JSON(http.StatusInternalServerError, apierrors.ErrorResponse{Error: apierrors.ErrDatabaseError})
		return
	}

	c.JSON(http.StatusOK, videos)
}

// DeleteVideo handles DELETE /api/videos/{video_id}. Delete is idempotent
// (§8): a second call against an already-deleted video returns not_found,
// never a repeated ok (§8 "Delete idempotence").
func (h *VideosHandler) DeleteVideo(c *gin.Context) {
	userID := auth.MustGetUserID(c)
	videoID := c.Param("video_id")

	ctx := c.Request.Context()

	video, err := h.videos.GetVideo(ctx, userID, videoID)
	if err != nil {
		if errors.Is(err, repository.ErrVideoNotFound) {
			c.JSON(http.StatusNotFound, apierrors.ErrorResponse{Error: apierrors.ErrVideoNotFound})
			return
		}
		h.logger.Error("get video", zap.Error(err))
		c.JSON(http.StatusInternalServerError, apierrors.ErrorResponse{Error: apierrors.ErrDatabaseError})
		return
	}

	if video.ObjectKey != "" {
		if err := h.assets.Delete(ctx, userID, video.ObjectKey); err != nil && !errors.Is(err, repository.ErrForbidden) {
			h.logger.Error("delete asset", zap.Error(err), zap.String("video_id", videoID))
			c.JSON(http.StatusInternalServerError, apierrors.ErrorResponse{Error: apierrors.FromKind(apierrors.KindUploadFailed, "failed to delete stored asset")})
			return
		}
	}

	if err := h.videos.DeleteVideo(ctx, userID, videoID); err != nil {
		if errors.Is(err, repository.ErrVideoNotFound) {
			c.JSON(http.StatusNotFound, apierrors.ErrorResponse{Error: apierrors.ErrVideoNotFound})
			return
		}
		h.logger.Error("delete video", zap.Error(err))
		c.JSON(http.StatusInternalServerError, apierrors.ErrorResponse{Error: apierrors.ErrDatabaseError})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// StreamVideo handles GET /api/videos/{video_id}/stream, redirecting to a
// short-lived presigned URL. A non-owner or missing video collapses to
// not_found (§8 invariant 6 / §8 "Multi-user isolation").
func (h *VideosHandler) StreamVideo(c *gin.Context) {
	userID := auth.MustGetUserID(c)
	videoID := c.Param("video_id")

	ctx := c.Request.Context()

	video, err := h.videos.GetVideo(ctx, userID, videoID)
	if err != nil {
		if errors.Is(err, repository.ErrVideoNotFound) {
			c.JSON(http.StatusNotFound, apierrors.ErrorResponse{Error: apierrors.ErrVideoNotFound})
			return
		}
		h.logger.Error("get video", zap.Error(err))
		c.JSON(http.StatusInternalServerError, apierrors.ErrorResponse{Error: apierrors.ErrDatabaseError})
		return
	}

	if video.ObjectKey == "" {
		c.JSON(http.StatusNotFound, apierrors.ErrorResponse{Error: apierrors.ErrVideoNotFound})
		return
	}

	url, err := h.assets.PresignedURL(ctx, userID, video.ObjectKey, streamURLTTL)
	if err != nil {
		if errors.Is(err, repository.ErrForbidden) {
			c.JSON(http.StatusForbidden, apierrors.ErrorResponse{Error: apierrors.ErrForbidden})
			return
		}
		h.logger.Error("presign stream url", zap.Error(err), zap.String("video_id", videoID))
		c.JSON(http.StatusInternalServerError, apierrors.ErrorResponse{Error: apierrors.ErrDatabaseError})
		return
	}

	c.Redirect(http.StatusFound, url)
}
