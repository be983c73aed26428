package service

import (
	"github.com/vinald/bookapi/internal/apperr"
	"github.com/vinald/bookapi/internal/models"
)

// Authorize is the single capability check used by every handler that gates
// on role or ownership. The actor passes when their role meets the required
// threshold, or when ownerID is set and they own the resource. Admins always
// pass.
func Authorize(actor *models.User, ownerID uint, requiredRole string) error {
	if actor == nil {
		return apperr.ErrInvalidToken
	}
	if actor.Role == models.RoleAdmin {
		return nil
	}
	if requiredRole != "" && models.RoleAtLeast(actor.Role, requiredRole) {
		return nil
	}
	if ownerID != 0 && actor.ID == ownerID {
		return nil
	}

	if ownerID != 0 {
		return apperr.ErrOwnershipRequired
	}
	switch requiredRole {
	case models.RoleModerator:
		return apperr.ErrModeratorRequired
	default:
		return apperr.ErrAdminRequired
	}
}
