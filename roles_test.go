package session_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	session "github.com/goliatone/go-session"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		input string
		valid bool
	}{
		{input: "user", valid: true},
		{input: "admin", valid: true},
		{input: "global_admin", valid: true},
		{input: "superuser", valid: false},
		{input: "", valid: false},
		{input: "Admin", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			role, ok := session.ParseRole(tt.input)
			assert.Equal(t, tt.valid, ok)
			assert.Equal(t, session.Role(tt.input), role)
		})
	}
}

func TestGetAllRoles(t *testing.T) {
	roles := session.GetAllRoles()
	assert.Len(t, roles, 3)
	for _, role := range roles {
		assert.True(t, role.IsValid())
	}
}

func TestAccessRequirementSatisfies(t *testing.T) {
	tests := []struct {
		name        string
		requirement session.AccessRequirement
		role        session.Role
		expected    bool
	}{
		{
			name:        "empty requirement admits any role",
			requirement: session.AccessRequirement{},
			role:        session.RoleUser,
			expected:    true,
		},
		{
			name:        "nil requirement admits any role",
			requirement: nil,
			role:        session.RoleUser,
			expected:    true,
		},
		{
			name:        "admin satisfies admin-or-global",
			requirement: session.AccessRequirement{session.RoleAdmin, session.RoleGlobalAdmin},
			role:        session.RoleAdmin,
			expected:    true,
		},
		{
			name:        "user does not satisfy admin",
			requirement: session.AccessRequirement{session.RoleAdmin},
			role:        session.RoleUser,
			expected:    false,
		},
		{
			name:        "no implied hierarchy: global_admin does not satisfy admin-only",
			requirement: session.AccessRequirement{session.RoleAdmin},
			role:        session.RoleGlobalAdmin,
			expected:    false,
		},
		{
			name:        "global_admin satisfies when listed explicitly",
			requirement: session.AccessRequirement{session.RoleAdmin, session.RoleGlobalAdmin},
			role:        session.RoleGlobalAdmin,
			expected:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.requirement.Satisfies(tt.role))
		})
	}
}
