package repositories

import (
	"errors"
	"strings"

	"github.com/princinho/stackforum/apperrors"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	// Preferred: typed error
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 || e.Code == 11001 {
				return true
			}
		}
	}

	// Sometimes we might get a BulkWriteException
	var bwe mongo.BulkWriteException
	if errors.As(err, &bwe) {
		for _, e := range bwe.WriteErrors {
			if e.Code == 11000 || e.Code == 11001 {
				return true
			}
		}
	}

	// Fallback
	return strings.Contains(err.Error(), "E11000 duplicate key error")
}

// findErr maps a FindOne/Decode error to the API taxonomy.
func findErr(err error, entity string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperrors.NotFound(entity + " not found")
	}
	return apperrors.Internal("find "+entity, err)
}
