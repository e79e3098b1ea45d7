package discord

import (
	"slices"

	"github.com/bwmarrin/discordgo"
)

// PermissionChecker decides who may run admin commands: members holding
// the configured admin role, and members with the Administrator permission.
type PermissionChecker struct {
	adminRoleID string
}

// NewPermissionChecker creates a PermissionChecker with the given admin role ID.
func NewPermissionChecker(adminRoleID string) *PermissionChecker {
	return &PermissionChecker{adminRoleID: adminRoleID}
}

// IsAdmin reports whether the interaction author may run admin commands.
// Interactions outside a guild have no Member and are never admin.
func (p *PermissionChecker) IsAdmin(i *discordgo.InteractionCreate) bool {
	if i.Member == nil {
		return false
	}
	if i.Member.Permissions&discordgo.PermissionAdministrator != 0 {
		return true
	}
	return p.adminRoleID != "" && slices.Contains(i.Member.Roles, p.adminRoleID)
}
