package realtime

// Room names are plain strings so the registry stays agnostic of what a room
// means. The helpers below define the four room families the gateway uses.

// UserRoom addresses every connection held by one identity.
func UserRoom(userID string) string { return "user:" + userID }

// CompanyRoom addresses every connection of one tenant.
func CompanyRoom(companyID string) string { return "company:" + companyID }

// ConversationRoom addresses subscribers of one direct conversation.
func ConversationRoom(conversationID string) string { return "chat:" + conversationID }

// ChannelRoom addresses subscribers of one named channel.
func ChannelRoom(channelID string) string { return "channel:" + channelID }
