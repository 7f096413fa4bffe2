package models

import "time"

type User struct {
	Phone        string `gorm:"primaryKey"        json:"phone"`
	Username     string `gorm:"not null"          json:"username"`
	PasswordHash string `gorm:"not null"          json:"-"`
	Role         string `gorm:"not null;default:user" json:"role"`
}

type Order struct {
	ID          string      `gorm:"primaryKey"     json:"id"`
	UserPhone   string      `gorm:"index;not null" json:"user_phone"`
	TotalAmount float64     `gorm:"not null"       json:"total_amount"`
	CreatedAt   time.Time   `gorm:"not null"       json:"created_at"`
	Items       []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
}

type OrderItem struct {
	ID      string  `gorm:"primaryKey"     json:"id"`
	OrderID string  `gorm:"index;not null" json:"order_id"`
	Name    string  `gorm:"not null"       json:"name"`
	Price   float64 `gorm:"not null"       json:"price"`
	Qty     int     `gorm:"not null;check:qty>=0" json:"qty"`
	Image   string  `json:"image"`
}
