package response

import (
	"errors"

	"lifelink/pkg/platform/sentinel"
)

func errorsIsNotFound(err error) bool {
	return errors.Is(err, sentinel.ErrNotFound)
}
