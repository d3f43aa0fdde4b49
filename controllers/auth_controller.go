package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/princinho/stackforum/apperrors"
	"github.com/princinho/stackforum/dto"
	"github.com/princinho/stackforum/models"
	"github.com/princinho/stackforum/repositories"
	"github.com/princinho/stackforum/session"
	"github.com/princinho/stackforum/utils"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// POST /auth/register
func Register(users repositories.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.RegisterDTO
		if !bindJSON(c, &body) {
			return
		}

		hash, err := utils.HashPassword(body.Password)
		if err != nil {
			respondError(c, apperrors.Internal("hash password", err))
			return
		}

		now := time.Now().UTC()
		user := &models.User{
			ID:           bson.NewObjectID(),
			Name:         body.Name,
			Email:        utils.NormalizeEmail(body.Email),
			PasswordHash: hash,
			Role:         models.RoleUser,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := users.Create(c.Request.Context(), user); err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully"})
	}
}

// POST /auth/login
func Login(users repositories.UserRepository, sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.LoginDTO
		if !bindJSON(c, &body) {
			return
		}

		invalid := apperrors.Unauthenticated("invalid email or password")
		user, err := users.FindByEmail(c.Request.Context(), utils.NormalizeEmail(body.Email))
		if err != nil {
			if apperrors.KindOf(err) == apperrors.KindNotFound {
				_ = utils.CheckNoAccount(body.Password)
				err = invalid
			}
			respondError(c, err)
			return
		}
		if err := utils.CheckPassword(user.PasswordHash, body.Password); err != nil {
			respondError(c, invalid)
			return
		}

		if err := sessions.StartSession(c.Writer, user.ID.Hex()); err != nil {
			respondError(c, apperrors.Internal("issue tokens", err))
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Login successful", "user": user})
	}
}

// POST /auth/refresh-token
func Refresh(users repositories.UserRepository, sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := sessions.Refresh(c.Request.Context(), c.Writer, c.Request, users); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Token refreshed"})
	}
}

// POST /auth/logout
func Logout(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessions.Logout(c.Writer)
		c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
	}
}
