package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/princinho/stackforum/apperrors"
	"github.com/princinho/stackforum/models"
	"github.com/princinho/stackforum/repositories"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const userIDKey = "userID"

// Authenticator resolves the caller of a request.
type Authenticator interface {
	Authenticate(r *http.Request) (bson.ObjectID, error)
}

// AuthMiddleware rejects requests without a valid access token cookie and
// stores the caller id on the context.
func AuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := auth.Authenticate(c.Request)
		if err != nil {
			Abort(c, err)
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// RequireRole lets the request through only when the caller has role.
// It must run after AuthMiddleware.
func RequireRole(users repositories.UserRepository, role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := CurrentUserID(c)
		if !ok {
			Abort(c, apperrors.Unauthenticated("authentication required"))
			return
		}
		user, err := users.FindByID(c.Request.Context(), userID)
		if err != nil {
			if apperrors.KindOf(err) == apperrors.KindNotFound {
				err = apperrors.InvalidCredential("unknown user")
			}
			Abort(c, err)
			return
		}
		if user.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "insufficient permissions",
				"kind":  apperrors.KindInvalidCredential,
			})
			return
		}
		c.Next()
	}
}

// CurrentUserID returns the caller id set by AuthMiddleware.
func CurrentUserID(c *gin.Context) (bson.ObjectID, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return bson.NilObjectID, false
	}
	id, ok := v.(bson.ObjectID)
	return id, ok && !id.IsZero()
}

// Abort stops the chain with the error rendered as {"error", "kind"}.
func Abort(c *gin.Context, err error) {
	kind := apperrors.KindOf(err)
	c.AbortWithStatusJSON(apperrors.HTTPStatus(kind), gin.H{
		"error": apperrors.PublicMessage(err),
		"kind":  kind,
	})
}
