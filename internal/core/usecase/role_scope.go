package usecase

import (
	"strings"

	"github.com/faqbot/faq-assistant/internal/core/domain"
	"github.com/faqbot/faq-assistant/internal/core/ports"
)

// ResolveSegments returns the segments a role may query. An explicit role
// that is mapped wins even when its list is empty; otherwise the default role
// applies when mapped. An empty result means no access.
func ResolveSegments(mapping domain.RoleMapping, defaultRole, role string) []int64 {
	role = strings.TrimSpace(role)
	if role != "" {
		if segments, ok := mapping[role]; ok {
			return copySegments(segments)
		}
	}
	if segments, ok := mapping[defaultRole]; ok {
		return copySegments(segments)
	}
	return nil
}

func copySegments(segments []int64) []int64 {
	if len(segments) == 0 {
		return nil
	}
	out := make([]int64, len(segments))
	copy(out, segments)
	return out
}

type RoleScopeResolver struct {
	source      ports.RoleMappingSource
	defaultRole string
}

func NewRoleScopeResolver(source ports.RoleMappingSource, defaultRole string) *RoleScopeResolver {
	return &RoleScopeResolver{source: source, defaultRole: defaultRole}
}

func (r *RoleScopeResolver) Resolve(role string) []int64 {
	return ResolveSegments(r.source.Snapshot(), r.defaultRole, role)
}

// StaticRoles is a fixed role mapping.
type StaticRoles domain.RoleMapping

func (s StaticRoles) Snapshot() domain.RoleMapping {
	return domain.RoleMapping(s)
}
