package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product defines the catalog document. Deletion is soft so order and cart
// snapshots keep resolving.
type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Price       float64            `bson:"price" json:"price"`
	Image       string             `bson:"image,omitempty" json:"image,omitempty"`
	Category    []string           `bson:"category" json:"category"`
	Sizes       []string           `bson:"sizes,omitempty" json:"sizes,omitempty"`
	Colors      []string           `bson:"colors,omitempty" json:"colors,omitempty"`
	Stock       int                `bson:"stock" json:"stock"`
	IsActive    bool               `bson:"isActive" json:"isActive"`
	IsDeleted   bool               `bson:"isDeleted" json:"-"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}
