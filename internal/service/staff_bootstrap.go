package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/table-reservation/internal/model"
	"github.com/iliyamo/table-reservation/internal/utils"
)

// StaffCreator is the slice of the staff repository bootstrap needs.
type StaffCreator interface {
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, email, password, role string, cost int) (uint64, error)
}

// EnsureAdmin creates the first ADMIN account when no staff exist yet.
// It does nothing when email or password is empty or staff already exist.
func EnsureAdmin(ctx context.Context, staff StaffCreator, email, password string, cost int, log *zap.Logger) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return false, nil
	}
	n, err := staff.Count(ctx)
	if err != nil {
		return false, storeErr(err)
	}
	if n > 0 {
		return false, nil
	}
	if _, err := staff.Create(ctx, email, password, model.RoleAdmin, cost); err != nil {
		if errors.Is(err, utils.ErrWeakPassword) {
			return false, invalid("ADMIN_PASSWORD: %v", err)
		}
		return false, storeErr(err)
	}
	if log != nil {
		log.Info("staff: bootstrap admin created", zap.String("email", email))
	}
	return true, nil
}
