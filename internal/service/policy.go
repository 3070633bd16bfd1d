package service

import (
	"slices"

	"github.com/msomdec/storefront-api/internal/domain"
)

// Operation identifiers used in the access policy.
const (
	OpAuthMe         = "auth.me"
	OpProductsCreate = "products.create"
	OpProductsUpdate = "products.update"
	OpProductsDelete = "products.delete"
)

// AccessPolicy maps an operation identifier to the roles allowed to invoke
// it. Operations that are absent, or map to no roles, require only an
// authenticated caller.
type AccessPolicy map[string][]domain.Role

// DefaultAccessPolicy is the policy the HTTP API is served with.
func DefaultAccessPolicy() AccessPolicy {
	admin := []domain.Role{domain.RoleAdmin}
	return AccessPolicy{
		OpAuthMe:         nil,
		OpProductsCreate: admin,
		OpProductsUpdate: admin,
		OpProductsDelete: admin,
	}
}

// RequiredRoles returns the roles declared for operation.
func (p AccessPolicy) RequiredRoles(operation string) []domain.Role {
	return p[operation]
}

// Authorize decides whether id may invoke operation.
//
// A nil id is ErrMissingIdentity: authorization ran before authentication.
func (p AccessPolicy) Authorize(operation string, id *Identity) error {
	if id == nil {
		return domain.ErrMissingIdentity
	}

	required := p.RequiredRoles(operation)
	if len(required) == 0 {
		return nil
	}
	if slices.Contains(required, id.Role) {
		return nil
	}
	return domain.ErrInsufficientPermissions
}
