package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TaskType names one of the fixed chat tasks
type TaskType string

const (
	TaskSearchProduct TaskType = "search_product"
	TaskComparePrices TaskType = "compare_prices"
	TaskLogin         TaskType = "login"
	TaskViewCart      TaskType = "view_cart"
	TaskOpenPage      TaskType = "open_page"
	TaskEmailResults  TaskType = "email_results"
	TaskGeneralChat   TaskType = "general_chat"
)

// TaskTypes lists every task the dispatcher knows, in prompt order.
var TaskTypes = []TaskType{
	TaskSearchProduct,
	TaskComparePrices,
	TaskLogin,
	TaskViewCart,
	TaskOpenPage,
	TaskEmailResults,
	TaskGeneralChat,
}

// Valid reports whether t is one of TaskTypes
func (t TaskType) Valid() bool {
	for _, known := range TaskTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Intent is the classified form of a chat message
type Intent struct {
	Task  TaskType `json:"task"`
	Site  string   `json:"site,omitempty"`
	Query string   `json:"query,omitempty"`
	URL   string   `json:"url,omitempty"`
	Email string   `json:"email,omitempty"`
	Reply string   `json:"reply,omitempty"`
}

// ChatRequest is the body of POST /chat
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// ChatResponse is returned by POST /chat
type ChatResponse struct {
	SessionID string                 `json:"session_id"`
	Task      TaskType               `json:"task"`
	Reply     string                 `json:"reply"`
	Products  []Product              `json:"products,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// ChatLog is one persisted request/response exchange
type ChatLog struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	SessionID string             `json:"session_id" bson:"session_id"`
	UserID    string             `json:"user_id,omitempty" bson:"user_id,omitempty"`
	Message   string             `json:"message" bson:"message"`
	Intent    Intent             `json:"intent" bson:"intent"`
	Reply     string             `json:"reply" bson:"reply"`
	Error     string             `json:"error,omitempty" bson:"error,omitempty"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}
