package models

import "time"

type ChannelType string

const (
	ChannelLog     ChannelType = "log"
	ChannelWebhook ChannelType = "webhook"
	ChannelPush    ChannelType = "push"
	ChannelKafka   ChannelType = "kafka"
)

type ChannelConfig struct {
	Type   ChannelType `json:"type"`
	Target string      `json:"target,omitempty"` // url for webhooks, topic for kafka
}

// SubscriptionFilter fields are optional. Empty fields match everything.
type SubscriptionFilter struct {
	Chain      Chain       `json:"chain,omitempty"`
	Asset      string      `json:"asset,omitempty"`
	Address    string      `json:"address,omitempty"`
	EventTypes []EventType `json:"event_types,omitempty"`
}

type Subscription struct {
	Id           string             `json:"id"`
	SubscriberId string             `json:"subscriber_id"`
	Filter       SubscriptionFilter `json:"filter"`
	Channels     []ChannelConfig    `json:"channels"`
	CreatedAt    time.Time          `json:"created_at"`
}

type Notification struct {
	Id             string            `json:"id"`
	SubscriptionId string            `json:"subscription_id"`
	Recipient      string            `json:"recipient"`
	EventType      EventType         `json:"event_type"`
	Title          string            `json:"title"`
	Message        string            `json:"message"`
	Transaction    BridgeTransaction `json:"transaction"`
	CreatedAt      time.Time         `json:"created_at"`
}

type DeliveryFailure struct {
	NotificationId string      `json:"notification_id"`
	SubscriptionId string      `json:"subscription_id"`
	Channel        ChannelType `json:"channel"`
	Error          string      `json:"error"`
	At             time.Time   `json:"at"`
}
