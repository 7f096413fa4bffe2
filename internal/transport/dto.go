package transport

import "time"

type RegisterRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Username string `json:"username"`
}

type LoginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// AuthResponse mirrors the historical login/register payload: "user" carries
// the username, not an object.
type AuthResponse struct {
	Token string `json:"token"`
	Role  string `json:"role"`
	User  string `json:"user"`
}

type ProfileResponse struct {
	Phone    string `json:"phone"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type CreateOrderItem struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Qty   int     `json:"qty"`
	Image string  `json:"image"`
}

type CreateOrderRequest struct {
	Items       []CreateOrderItem `json:"items"`
	TotalAmount float64           `json:"total_amount"`
}

type CreateOrderResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type OrderItemView struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Qty   int     `json:"qty"`
	Image string  `json:"image"`
}

type OrderView struct {
	ID          string          `json:"id"`
	TotalAmount float64         `json:"total_amount"`
	CreatedAt   time.Time       `json:"created_at"`
	Items       []OrderItemView `json:"items"`
}

// AdminOrderView additionally exposes the owning phone.
type AdminOrderView struct {
	ID          string          `json:"id"`
	UserPhone   string          `json:"user_phone"`
	TotalAmount float64         `json:"total_amount"`
	CreatedAt   time.Time       `json:"created_at"`
	Items       []OrderItemView `json:"items"`
}
