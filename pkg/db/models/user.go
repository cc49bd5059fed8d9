package models

import "time"

// User is a chatbot account. Rows are created on first profile submission or
// first chat message and are never hard-deleted.
type User struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Email        string    `gorm:"column:email;not null;uniqueIndex"`
	Name         string    `gorm:"column:name;not null"`
	Phone        *string   `gorm:"column:phone"`
	Country      *string   `gorm:"column:country"`
	State        *string   `gorm:"column:state"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	LastActive   time.Time `gorm:"column:last_active"`
}

func (User) TableName() string { return "users" }
