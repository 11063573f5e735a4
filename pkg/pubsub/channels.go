package pubsub

import (
	"fmt"
	"strconv"
	"strings"
)

// Channel naming: "{stream}:user:{userID}". Kafka maps the stream to a topic
// and the user id to the message key.
const (
	StreamNotifications = "notis"

	channelUserFormat = "%s:user:%d"
)

// Event types.
const (
	EventNotificationCreated = "notification.created"
)

// UserChannel returns the channel carrying stream events for one user.
func UserChannel(stream string, userID uint) string {
	return fmt.Sprintf(channelUserFormat, stream, userID)
}

// UserPattern matches the channels of every user on stream.
func UserPattern(stream string) string {
	return stream + ":user:*"
}

// ParseUserChannel extracts the stream and user id from a user channel.
func ParseUserChannel(channel string) (stream string, userID uint, err error) {
	parts := strings.Split(channel, ":")
	if len(parts) != 3 || parts[1] != "user" || parts[0] == "" {
		return "", 0, fmt.Errorf("invalid channel format: %s", channel)
	}
	id, err := strconv.ParseUint(parts[2], 10, 64)
	if err != nil || id == 0 {
		return "", 0, fmt.Errorf("invalid user id in channel: %s", channel)
	}
	return parts[0], uint(id), nil
}
