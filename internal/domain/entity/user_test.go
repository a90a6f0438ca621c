package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRole_IsValid(t *testing.T) {
	for _, role := range []Role{RoleAdmin, RoleModerator, RoleUser, RoleGuest} {
		assert.True(t, role.IsValid(), role.String())
	}
	assert.False(t, Role("owner").IsValid())
	assert.False(t, Role("").IsValid())
}

func TestRolesFromStrings_FiltersUnknown(t *testing.T) {
	roles := RolesFromStrings([]string{"admin", "root", "user"})

	assert.Equal(t, Roles{RoleAdmin, RoleUser}, roles)
	assert.True(t, roles.Contains(RoleAdmin))
	assert.False(t, roles.Contains(RoleGuest))
	assert.Equal(t, []string{"admin", "user"}, roles.ToStrings())
}

func TestUser_IsActive(t *testing.T) {
	tests := []struct {
		status UserStatus
		want   bool
	}{
		{UserStatusActive, true},
		{UserStatusInactive, false},
		{UserStatusSuspended, false},
		{UserStatusDeleted, false},
	}

	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			u := &User{Status: tt.status}
			assert.Equal(t, tt.want, u.IsActive())
			assert.True(t, tt.status.IsValid())
		})
	}
}
