package dbaccess

import "github.com/pkg/errors"

// ErrAlreadyExists denotes an attempt to store data under a key that already
// holds data.
var ErrAlreadyExists = errors.New("already exists")

// IsAlreadyExistsError checks whether an error is an ErrAlreadyExists.
func IsAlreadyExistsError(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}
