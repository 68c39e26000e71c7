package domain

// RoleMapping maps a role name to the segment ids it may query.
type RoleMapping map[string][]int64

// Clone returns a deep copy so snapshots never share slices.
func (m RoleMapping) Clone() RoleMapping {
	out := make(RoleMapping, len(m))
	for role, segments := range m {
		cp := make([]int64, len(segments))
		copy(cp, segments)
		out[role] = cp
	}
	return out
}
