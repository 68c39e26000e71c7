package usecase

import (
	"reflect"
	"testing"

	"github.com/faqbot/faq-assistant/internal/core/domain"
)

func TestResolveSegments(t *testing.T) {
	mapping := domain.RoleMapping{
		"public":     {1},
		"Secretaria": {1, 2, 3},
		"locked":     {},
	}

	cases := []struct {
		name        string
		mapping     domain.RoleMapping
		defaultRole string
		role        string
		want        []int64
	}{
		{name: "mapped role", mapping: mapping, defaultRole: "public", role: "Secretaria", want: []int64{1, 2, 3}},
		{name: "unmapped role falls back to default", mapping: mapping, defaultRole: "public", role: "ghost", want: []int64{1}},
		{name: "empty role uses default", mapping: mapping, defaultRole: "public", role: "", want: []int64{1}},
		{name: "unmapped role without default", mapping: mapping, defaultRole: "nobody", role: "ghost", want: nil},
		{name: "explicit empty mapping means no access", mapping: mapping, defaultRole: "public", role: "locked", want: nil},
		{name: "empty mapping", mapping: domain.RoleMapping{}, defaultRole: "public", role: "public", want: nil},
	}

	for _, tc := range cases {
		got := ResolveSegments(tc.mapping, tc.defaultRole, tc.role)
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestResolveSegmentsReturnsCopy(t *testing.T) {
	mapping := domain.RoleMapping{"public": {1, 2}}
	got := ResolveSegments(mapping, "public", "public")
	got[0] = 99
	if mapping["public"][0] != 1 {
		t.Fatalf("resolver must not expose mapping slices")
	}
}

func TestRoleScopeResolverReadsCurrentSnapshot(t *testing.T) {
	resolver := NewRoleScopeResolver(StaticRoles{"public": {7}}, "public")
	if got := resolver.Resolve("ghost"); !reflect.DeepEqual(got, []int64{7}) {
		t.Fatalf("expected default segments, got %v", got)
	}
}
