package storefrontx

// User is the signed-in customer as returned by the backend.
type User struct {
	Token     string `json:"token"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Mail      string `json:"mail"`
}

// Credentials are the sign-in form fields.
type Credentials struct {
	Mail     string `json:"mail" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Registration are the sign-up form fields.
type Registration struct {
	Firstname string `json:"firstname" validate:"required"`
	Lastname  string `json:"lastname" validate:"required"`
	Mail      string `json:"mail" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
}

// List is a user-defined product collection ("favorites"). Membership
// edges are owned by the backend; clients only hold a cached copy.
type List struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Done        bool      `json:"done"`
	Products    []Product `json:"products"`
}

// Contains reports whether the list holds the product.
func (l List) Contains(productID string) bool {
	for _, p := range l.Products {
		if p.ID == productID {
			return true
		}
	}
	return false
}
