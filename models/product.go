package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product is one listing scraped from a search results page.
// Every field is optional: extractors fill what the page exposes.
type Product struct {
	Site   string `json:"site" bson:"site"`
	Title  string `json:"title" bson:"title"`
	Price  string `json:"price" bson:"price"`
	Rating string `json:"rating" bson:"rating"`
	Image  string `json:"image" bson:"image"`
	URL    string `json:"url" bson:"url"`
}

// SearchResult is the outcome of a single-site or aggregated search
type SearchResult struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Query     string             `json:"query" bson:"query"`
	Sites     []string           `json:"sites" bson:"sites"`             // Sites actually visited, in order
	Products  []Product          `json:"products" bson:"products"`
	Errors    map[string]string  `json:"errors,omitempty" bson:"errors"` // Site name -> failure message
	Cached    bool               `json:"cached,omitempty" bson:"-"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}
