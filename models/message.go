package models

import "time"

// MaxMessageLength bounds the body of a contact message.
const MaxMessageLength = 5000

// Message is a direct message sent from a contact dialog.
type Message struct {
	ID         string    `bson:"id" json:"id"`
	FromUserID string    `bson:"fromUserId" json:"fromUserId"`
	FromName   string    `bson:"fromName" json:"fromName"`
	ToUserID   string    `bson:"toUserId" json:"toUserId"`
	Subject    string    `bson:"subject,omitempty" json:"subject,omitempty"`
	Body       string    `bson:"body" json:"body"`
	CampaignID string    `bson:"campaignId,omitempty" json:"campaignId,omitempty"`
	Read       bool      `bson:"read" json:"read"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
}

// SendMessageRequest is the contact dialog payload.
type SendMessageRequest struct {
	ToUserID   string `json:"toUserId"`
	Subject    string `json:"subject"`
	Body       string `json:"body"`
	CampaignID string `json:"campaignId"`
}
