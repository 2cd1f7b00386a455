package service

import (
	"github.com/iliyamo/tour-booking/internal/apperror"
	"github.com/iliyamo/tour-booking/internal/model"
)

// Allow returns nil when role is one of allowed, otherwise a 403 error.
func Allow(role model.Role, allowed ...model.Role) error {
	for _, a := range allowed {
		if role == a {
			return nil
		}
	}
	return apperror.Forbidden("You do not have permission to perform this action")
}
