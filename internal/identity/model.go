package identity

import (
	"time"

	"github.com/vendmart/vendmart/internal/vend"
)

// User represents a registered marketplace account. Balance is the buyer's
// coin deposit; it is mutated only by the vending engine and surfaces here
// read-only.
type User struct {
	ID           string
	Username     string
	Role         vend.Role
	PasswordHash []byte
	Balance      int64
	CreatedAt    time.Time
}

// Credentials carries a login or registration request.
type Credentials struct {
	Username string
	Password string
	Role     vend.Role
}
