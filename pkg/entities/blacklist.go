package entities

import "github.com/Jacobbrewer1/rabbit/pkg/custom"

// BlacklistEntry blocks a user from opening tickets in a guild.
type BlacklistEntry struct {
	GuildID string          `json:"guild_id" bson:"guild_id"`
	UserID  string          `json:"user_id" bson:"user_id"`
	Reason  string          `json:"reason" bson:"reason"`
	AddedBy string          `json:"added_by" bson:"added_by"`
	AddedAt custom.Datetime `json:"added_at" bson:"added_at"`
}
