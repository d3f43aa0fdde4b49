package controllers

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/princinho/stackforum/apperrors"
	"github.com/princinho/stackforum/middleware"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// respondError writes err as {"error", "kind"}. Internal causes are logged
// and never sent to the client.
func respondError(c *gin.Context, err error) {
	if apperrors.KindOf(err) == apperrors.KindInternal {
		slog.ErrorContext(c.Request.Context(), "request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"err", err,
		)
	}
	middleware.Abort(c, err)
}

// bindJSON decodes the body into dst and reports binding failures as
// validation errors.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, apperrors.Validation(err.Error()))
		return false
	}
	return true
}

func pathID(c *gin.Context, param, entity string) (bson.ObjectID, bool) {
	id, err := bson.ObjectIDFromHex(c.Param(param))
	if err != nil {
		respondError(c, apperrors.Validation("invalid "+entity+" id"))
		return bson.NilObjectID, false
	}
	return id, true
}

func callerID(c *gin.Context) (bson.ObjectID, bool) {
	id, ok := middleware.CurrentUserID(c)
	if !ok {
		respondError(c, apperrors.Unauthenticated("authentication required"))
	}
	return id, ok
}
