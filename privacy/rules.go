package privacy

import (
	"context"
	"fmt"
	"slices"

	"github.com/syssam/persist"
)

// Viewer represents the authenticated user making a request.
type Viewer interface {
	// GetID returns the viewer's unique identifier.
	GetID() string
	// GetRoles returns the viewer's roles.
	GetRoles() []string
	// GetTenantID returns the viewer's tenant, or "" when not applicable.
	GetTenantID() string
}

type viewerCtxKey struct{}

// WithViewer returns a new context with the viewer attached.
func WithViewer(ctx context.Context, viewer Viewer) context.Context {
	return context.WithValue(ctx, viewerCtxKey{}, viewer)
}

// ViewerFromContext retrieves the viewer from the context, or nil.
func ViewerFromContext(ctx context.Context) Viewer {
	v, _ := ctx.Value(viewerCtxKey{}).(Viewer)
	return v
}

// SimpleViewer is a basic implementation of the Viewer interface.
type SimpleViewer struct {
	UserID   string
	Roles    []string
	TenantID string
}

// GetID returns the user ID.
func (v *SimpleViewer) GetID() string { return v.UserID }

// GetRoles returns the user's roles.
func (v *SimpleViewer) GetRoles() []string { return v.Roles }

// GetTenantID returns the tenant ID.
func (v *SimpleViewer) GetTenantID() string { return v.TenantID }

// DenyIfNoViewer returns a rule that denies the write if no viewer is
// present in the context.
//
//	privacy.MutationPolicy{
//	    privacy.DenyIfNoViewer(),
//	    privacy.HasRole("admin"),
//	    privacy.AlwaysDenyRule(),
//	}
func DenyIfNoViewer() MutationRule {
	return ContextMutationRule(func(ctx context.Context) error {
		if ViewerFromContext(ctx) == nil {
			return Denyf("persist/privacy: viewer required")
		}
		return Skip
	})
}

// HasRole returns a rule that allows the write if the viewer has the
// role, and skips otherwise.
func HasRole(role string) MutationRule {
	return HasAnyRole(role)
}

// HasAnyRole returns a rule that allows the write if the viewer has any of
// the roles, and skips otherwise.
func HasAnyRole(roles ...string) MutationRule {
	return ContextMutationRule(func(ctx context.Context) error {
		viewer := ViewerFromContext(ctx)
		if viewer == nil {
			return Skip
		}
		if slices.ContainsFunc(roles, func(r string) bool { return slices.Contains(viewer.GetRoles(), r) }) {
			return Allow
		}
		return Skip
	})
}

// IsOwner returns a rule that allows the write if the value of the named
// property is the viewer's ID. Updates must be owned in both states.
//
//	privacy.MutationPolicy{
//	    privacy.DenyIfNoViewer(),
//	    privacy.IsOwner("owner_id"),
//	    privacy.AlwaysDenyRule(),
//	}
func IsOwner(property string) MutationRule {
	return MutationRuleFunc(func(ctx context.Context, m *Mutation) error {
		viewer := ViewerFromContext(ctx)
		if viewer == nil {
			return Skip
		}
		for _, v := range states(m, property) {
			if v == nil || format(v) != viewer.GetID() {
				return Skip
			}
		}
		return Allow
	})
}

// TenantRule returns a rule that allows the write if the value of the
// named property is the viewer's tenant and denies it otherwise. An update
// may not move an object between tenants. Viewers without a tenant and
// objects without the property are skipped.
func TenantRule(property string) MutationRule {
	return MutationRuleFunc(func(ctx context.Context, m *Mutation) error {
		viewer := ViewerFromContext(ctx)
		if viewer == nil || viewer.GetTenantID() == "" {
			return Skip
		}
		vs := states(m, property)
		if vs[0] == nil {
			return Skip
		}
		for _, v := range vs {
			if v == nil || format(v) != viewer.GetTenantID() {
				return Denyf("persist/privacy: tenant mismatch")
			}
		}
		return Allow
	})
}

// states returns the property value of the object and, for updates, of
// its stored state. Missing values are nil.
func states(m *Mutation, property string) []any {
	v, _ := m.Field(property)
	vs := []any{v}
	if m.Op.Is(persist.OpUpdate) && m.Original != nil {
		o, _ := m.OriginalField(property)
		vs = append(vs, o)
	}
	return vs
}

func format(v any) string {
	switch v := v.(type) {
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
