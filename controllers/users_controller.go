package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/princinho/stackforum/apperrors"
	"github.com/princinho/stackforum/dto"
	"github.com/princinho/stackforum/models"
	"github.com/princinho/stackforum/repositories"
	"github.com/princinho/stackforum/storage"
	"github.com/princinho/stackforum/utils"
)

var errStorageDisabled = errors.New("no storage backend configured")

// GET /user/me
func Me(users repositories.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := callerID(c)
		if !ok {
			return
		}
		user, err := users.FindByID(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user})
	}
}

// PATCH /user/me
func UpdateMe(users repositories.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := callerID(c)
		if !ok {
			return
		}
		var body dto.UpdateProfileDTO
		if !bindJSON(c, &body) {
			return
		}
		user, err := users.UpdateProfile(c.Request.Context(), userID, repositories.UserUpdate{
			Name:    body.Name,
			Profile: body.Profile,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user})
	}
}

// PATCH /user/me/password
func ChangeMyPassword(users repositories.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := callerID(c)
		if !ok {
			return
		}
		var body dto.ChangeMyPasswordDTO
		if !bindJSON(c, &body) {
			return
		}

		user, err := users.FindByID(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err)
			return
		}
		if err := utils.CheckPassword(user.PasswordHash, body.CurrentPassword); err != nil {
			respondError(c, apperrors.InvalidCredential("current password is incorrect"))
			return
		}

		newHash, err := utils.HashPassword(body.NewPassword)
		if err != nil {
			respondError(c, apperrors.Internal("hash password", err))
			return
		}
		if err := users.UpdatePasswordHash(c.Request.Context(), userID, newHash); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// POST /user/me/avatar
//
// uploader may be nil when no storage backend is configured.
func UploadAvatar(users repositories.UserRepository, uploader storage.Uploader, validator *storage.FileValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := callerID(c)
		if !ok {
			return
		}
		if uploader == nil {
			respondError(c, apperrors.Internal("avatar upload", errStorageDisabled))
			return
		}

		fh, err := c.FormFile("avatar")
		if err != nil {
			respondError(c, apperrors.Validation("avatar file is required"))
			return
		}
		if _, err := validator.ValidateFile(fh); err != nil {
			respondError(c, err)
			return
		}

		ctx := c.Request.Context()
		current, err := users.FindByID(ctx, userID)
		if err != nil {
			respondError(c, err)
			return
		}

		url, err := uploader.Upload(ctx, "avatars/"+userID.Hex(), fh)
		if err != nil {
			respondError(c, apperrors.Internal("upload avatar", err))
			return
		}
		user, err := users.UpdateProfile(ctx, userID, repositories.UserUpdate{AvatarURL: &url})
		if err != nil {
			respondError(c, err)
			return
		}

		if current.AvatarURL != "" {
			if err := uploader.Delete(ctx, current.AvatarURL); err != nil {
				slog.WarnContext(ctx, "failed to delete previous avatar", "url", current.AvatarURL, "err", err)
			}
		}
		c.JSON(http.StatusOK, gin.H{"user": user})
	}
}

// PATCH /admin/users/:id/role
func SetUserRole(users repositories.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id", "user")
		if !ok {
			return
		}
		var body dto.UpdateRoleDTO
		if !bindJSON(c, &body) {
			return
		}
		role := models.Role(body.Role)
		if !role.Valid() {
			respondError(c, apperrors.Validation("invalid role"))
			return
		}
		if err := users.UpdateRole(c.Request.Context(), id, role); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id, "role": role})
	}
}
