package permissions

import (
	"github.com/Jacobbrewer1/discordgo"
)

const (
	// TicketMemberAllow is what the creator and added members can do in a ticket channel.
	TicketMemberAllow int64 = discordgo.PermissionViewChannel |
		discordgo.PermissionSendMessages |
		discordgo.PermissionReadMessageHistory |
		discordgo.PermissionAttachFiles |
		discordgo.PermissionEmbedLinks

	// TicketStaffAllow is what support roles can do in a ticket channel.
	TicketStaffAllow = TicketMemberAllow | discordgo.PermissionManageMessages

	// TicketReadOnlyAllow is what the creator keeps once the ticket is closed.
	TicketReadOnlyAllow int64 = discordgo.PermissionViewChannel | discordgo.PermissionReadMessageHistory

	// TicketReadOnlyDeny is what the creator loses once the ticket is closed.
	TicketReadOnlyDeny int64 = discordgo.PermissionSendMessages
)

// TicketOverwrites returns the channel overwrites for a new ticket. Everyone is denied, the creator and the support
// roles are allowed in.
func TicketOverwrites(guildID, creatorID string, supportRoles []string) []*discordgo.PermissionOverwrite {
	overwrites := []*discordgo.PermissionOverwrite{
		{
			// The @everyone role shares the guild ID.
			ID:   guildID,
			Type: discordgo.PermissionOverwriteTypeRole,
			Deny: discordgo.PermissionViewChannel,
		},
		{
			ID:    creatorID,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: TicketMemberAllow,
		},
	}

	for _, r := range supportRoles {
		if r == "" || r == guildID {
			continue
		}
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:    r,
			Type:  discordgo.PermissionOverwriteTypeRole,
			Allow: TicketStaffAllow,
		})
	}
	return overwrites
}
