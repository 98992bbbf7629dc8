// Package repos implements the record store over gorm. Methods take an
// optional transaction handle; passing nil runs against the base connection.
// Every write stamps updated_at and sets the dirty flag, except the
// ApplyRemote variants used by sync pulls.
package repos

import (
	"errors"

	"gorm.io/gorm"
)

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
