package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"fms/internal/lifecycle"
	"fms/pkg/apperror"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// translate maps gorm and driver errors onto apperror kinds. Errors that are
// already classified pass through untouched.
func translate(err error, entity string) error {
	if err == nil {
		return nil
	}
	var classified *apperror.Error
	if errors.As(err, &classified) || errors.Is(err, lifecycle.ErrNumberTaken) {
		return err
	}

	var netErr net.Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperror.NotFound(entity)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperror.Wrap(apperror.KindConflict, err, "%s already exists", entity)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return apperror.Wrap(apperror.KindValidation, err, "%s references a record that does not exist", entity)
	case errors.Is(err, gorm.ErrCheckConstraintViolated):
		return apperror.Wrap(apperror.KindValidation, err, "%s violates a data rule", entity)
	case errors.Is(err, driver.ErrBadConn), errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr):
		return apperror.StoreUnavailable(err)
	}
	return apperror.Internal(err, fmt.Sprintf("%s query failed", entity))
}

// updateStatus is the compare-and-swap used by every lifecycle transition:
// the row changes only if it is still in the status the caller observed.
func updateStatus(ctx context.Context, db *gorm.DB, row interface{}, entity string, id uuid.UUID, from lifecycle.Status, fields map[string]interface{}) error {
	res := GetDB(ctx, db).Model(row).
		Where("id = ? AND status = ?", id, from).
		Updates(fields)
	if res.Error != nil {
		return translate(res.Error, entity)
	}
	if res.RowsAffected == 0 {
		return apperror.Conflict(fmt.Sprintf("%s was changed by someone else, reload and try again", entity))
	}
	return nil
}

// ListFilter narrows list queries. OwnerID limits rows to one submitter.
type ListFilter struct {
	OwnerID *uuid.UUID
	Status  string
	Page    int
	Limit   int
}

func (f ListFilter) offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.limit()
}

func (f ListFilter) limit() int {
	if f.Limit <= 0 {
		return 20
	}
	return f.Limit
}
