package coordinator

import (
	"context"
	"errors"
	"strconv"

	apperrors "github.com/louisbranch/mockinterview/internal/platform/errors"
	"github.com/louisbranch/mockinterview/internal/services/interview/storage"
)

// storageError maps storage sentinels to domain errors. resource and id
// describe the record a NotFound refers to.
func storageError(err error, op, resource string, id int64) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrNotFound):
		return apperrors.WithMetadata(apperrors.CodeNotFound, resource+" not found", map[string]string{
			"resource": resource,
			"id":       strconv.FormatInt(id, 10),
		})
	case errors.Is(err, storage.ErrSessionCompleted):
		return apperrors.WithMetadata(apperrors.CodeInvalidState, "session is completed", map[string]string{
			"session_id": strconv.FormatInt(id, 10),
		})
	case errors.Is(err, storage.ErrInvalidPageToken):
		return apperrors.WithMetadata(apperrors.CodeInvalidInput, "invalid page token", map[string]string{"field": "page token"})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return apperrors.Wrap(apperrors.CodeStorageFailure, op, err)
	}
}
