package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Activity types
const (
	ActivityFollow = "follow"
	ActivityLike   = "like"
)

// Activity is a follow or like event shown to its recipient (MongoDB)
type Activity struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Type        string             `json:"type" bson:"type"`
	ActorID     uint               `json:"actor_id" bson:"actor_id"`
	RecipientID uint               `json:"recipient_id" bson:"recipient_id"`
	TargetID    uint               `json:"target_id" bson:"target_id"` // user for follows, post for likes
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
}
