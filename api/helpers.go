package api

import (
	"errors"

	"github.com/jellydator/validation"
	"github.com/xraph/forge"

	"github.com/xraph/sentinel"
	"github.com/xraph/sentinel/audit"
	"github.com/xraph/sentinel/capability"
	"github.com/xraph/sentinel/grant"
	"github.com/xraph/sentinel/group"
	"github.com/xraph/sentinel/membership"
)

// mapError maps domain errors to Forge HTTP errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		return forge.NotFound(err.Error())
	}
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		return forge.BadRequest(err.Error())
	}
	if errors.Is(err, sentinel.ErrCapabilityInactive) || errors.Is(err, sentinel.ErrGroupInactive) {
		return forge.BadRequest(err.Error())
	}
	if errors.Is(err, sentinel.ErrInvalidTimeWindow) {
		return forge.BadRequest(err.Error())
	}
	if errors.Is(err, sentinel.ErrAccessDenied) {
		return forge.Forbidden(err.Error())
	}
	return err
}

func isNotFound(err error) bool {
	return errors.Is(err, capability.ErrNotFound) ||
		errors.Is(err, group.ErrNotFound) ||
		errors.Is(err, membership.ErrNotFound) ||
		errors.Is(err, grant.ErrNotFound) ||
		errors.Is(err, audit.ErrNotFound)
}

func defaultLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}
