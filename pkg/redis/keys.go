package redis

import "fmt"

// Redis key patterns for the application
// Following the pattern: entity:id or entity:id:attribute

// User keys
func UserKey(userID string) string {
	return fmt.Sprintf("user:%s", userID)
}

func UserByUsernameKey(username string) string {
	return fmt.Sprintf("user:username:%s", username)
}

func UserByEmailKey(email string) string {
	return fmt.Sprintf("user:email:%s", email)
}

// Session keys
func SessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

func UserSessionsKey(userID string) string {
	return fmt.Sprintf("user_sessions:%s", userID)
}

// Token blacklist
func TokenBlacklistKey(token string) string {
	return fmt.Sprintf("token_blacklist:%s", token)
}

// Bot keys
func BotKey(botID string) string {
	return fmt.Sprintf("bot:%s", botID)
}

func UserBotsKey(userID string) string {
	return fmt.Sprintf("user_bots:%s", userID)
}

func BotsByStatusKey(status string) string {
	return fmt.Sprintf("bots_by_status:%s", status)
}

// BotNameKey is the (owner, name) uniqueness claim. The value is the local
// bot id holding the name.
func BotNameKey(userID, normalizedName string) string {
	return fmt.Sprintf("bot_name:%s:%s", userID, normalizedName)
}

// BotIDSequenceKey is the counter backing local bot ids.
const BotIDSequenceKey = "sequences:bot_id"

// Rate limiting keys
func RateLimitKey(identifier, action string) string {
	return fmt.Sprintf("rate_limit:%s:%s", action, identifier)
}

// Pub/Sub channels bridging lifecycle events to connected websockets
const ChannelBroadcast = "channel:broadcast"

const channelUserPrefix = "channel:user:"

// UserChannel returns a user-specific channel
func UserChannel(userID string) string {
	return fmt.Sprintf("%s%s", channelUserPrefix, userID)
}

// UserChannelPattern matches every user-specific channel.
func UserChannelPattern() string {
	return channelUserPrefix + "*"
}

// UserChannelPrefix exposes the prefix so subscribers can recover the user
// id from a channel name.
func UserChannelPrefix() string {
	return channelUserPrefix
}
