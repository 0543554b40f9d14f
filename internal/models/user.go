package models

// User roles.
const (
	RoleAdmin  = "admin"
	RoleBooker = "booker"
)

// User represents an authenticated account: a company booker placing orders
// or a platform admin operating them.
type User struct {
	BaseModel
	Email        string  `gorm:"uniqueIndex" json:"email"`
	DisplayName  string  `json:"display_name"`
	Phone        string  `json:"phone"`
	CompanyName  string  `json:"company_name"`
	Role         string  `gorm:"default:booker" json:"role"`
	PasswordHash string  `json:"-"`
	Orders       []Order `gorm:"foreignKey:BookerID" json:"orders,omitempty"`
}
