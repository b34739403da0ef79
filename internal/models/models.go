package models

import "time"

// Cart and order states mirror the values stored in the database, which are
// also the values exposed on the wire.
const (
	CartStatusPending = "pendiente"
	CartStatusPaid    = "pagado"

	OrderStatusPending   = "pendiente"
	OrderStatusPaid      = "pagado"
	OrderStatusShipped   = "enviado"
	OrderStatusDelivered = "entregado"
	OrderStatusCancelled = "cancelado"
)

const (
	DefaultShippingAddress = "Sin dirección especificada"
	DefaultPaymentMethod   = "tarjeta"
)

var OrderStatuses = []string{
	OrderStatusPending,
	OrderStatusPaid,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

var PaymentMethods = []string{"tarjeta", "paypal", "mercadopago", "transferencia"}

type Product struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"        json:"id"`
	SKU         string    `gorm:"uniqueIndex;not null"            json:"sku"`
	Name        string    `gorm:"not null"                        json:"nombre"`
	Description string    `gorm:"not null"                        json:"descripcion"`
	Price       float64   `gorm:"not null"                        json:"precio"`
	Stock       int       `gorm:"not null"                        json:"stock"`
	Category    string    `gorm:"index;not null"                  json:"categoria"`
	Image       string    `json:"imagen,omitempty"`
	Available   bool      `gorm:"default:true"                    json:"disponible"`
	CreatedAt   time.Time `json:"fechaCreacion"`
	UpdatedAt   time.Time `json:"fechaActualizacion"`
}

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string `gorm:"uniqueIndex;not null"     json:"email"`
	Name         string `gorm:"not null"                 json:"nombre"`
	City         string `json:"ciudad,omitempty"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Role         string `gorm:"not null;default:user"    json:"role"`
}

// CartUser is the user snapshot embedded in a cart. The user id doubles as the
// cart lookup key: one cart per user.
type CartUser struct {
	ID    uint   `gorm:"column:user_id;uniqueIndex;not null" json:"_id"`
	Email string `gorm:"column:user_email;not null"          json:"email"`
	Name  string `gorm:"column:user_name;not null"           json:"nombre"`
}

type Cart struct {
	ID        uint       `gorm:"primaryKey;autoIncrement"           json:"id"`
	User      CartUser   `gorm:"embedded"                           json:"usuario"`
	Items     []CartItem `gorm:"foreignKey:CartID"                  json:"items"`
	Status    string     `gorm:"not null;default:pendiente"         json:"estado"`
	CreatedAt time.Time  `json:"fechaCreacion"`
	UpdatedAt time.Time  `json:"fechaActualizacion"`
}

// CartItem rows store the product id; reads resolve the full product so the
// wire shape carries product detail under "producto".
type CartItem struct {
	ID        uint     `gorm:"primaryKey;autoIncrement"      json:"-"`
	CartID    uint     `gorm:"index;not null"                json:"-"`
	ProductID uint     `gorm:"not null"                      json:"-"`
	Product   *Product `gorm:"foreignKey:ProductID"          json:"producto"`
	Quantity  uint     `gorm:"not null;check:quantity >= 1"  json:"cantidad"`
}

// OrderUser is the denormalized user snapshot captured at checkout.
type OrderUser struct {
	ID    uint   `gorm:"column:user_id;index;not null" json:"_id"`
	Email string `gorm:"column:user_email;not null"    json:"email"`
	Name  string `gorm:"column:user_name;not null"     json:"nombre"`
}

// Order is immutable after creation except for its status and shipping
// fields. CartID is unique: each cart produces at most one order.
type Order struct {
	ID              uint        `gorm:"primaryKey;autoIncrement"   json:"id"`
	CartID          uint        `gorm:"uniqueIndex;not null"       json:"carrito"`
	User            OrderUser   `gorm:"embedded"                   json:"usuario"`
	Items           []OrderItem `gorm:"foreignKey:OrderID"         json:"items"`
	Total           float64     `gorm:"not null"                   json:"total"`
	Status          string      `gorm:"not null;default:pendiente" json:"estado"`
	ShippingAddress string      `gorm:"not null"                   json:"direccionEnvio"`
	PaymentMethod   string      `gorm:"not null"                   json:"metodoPago"`
	CreatedAt       time.Time   `json:"fechaCreacion"`
	UpdatedAt       time.Time   `json:"fechaActualizacion"`
}

// OrderItem captures the unit price at checkout time; later product price
// changes never touch existing orders.
type OrderItem struct {
	ID        uint    `gorm:"primaryKey;autoIncrement"     json:"-"`
	OrderID   uint    `gorm:"index;not null"               json:"-"`
	ProductID uint    `gorm:"not null"                     json:"producto"`
	Quantity  uint    `gorm:"not null;check:quantity >= 1" json:"cantidad"`
	UnitPrice float64 `gorm:"not null"                     json:"precioUnitario"`
}

func ValidOrderStatus(s string) bool {
	for _, v := range OrderStatuses {
		if v == s {
			return true
		}
	}
	return false
}

func ValidPaymentMethod(s string) bool {
	for _, v := range PaymentMethods {
		if v == s {
			return true
		}
	}
	return false
}
