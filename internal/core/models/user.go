package models

// User is the profile returned by GET /users/me.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	CreatedAt Timestamp `json:"created_at"`
}

// DisplayName prefers the full name and falls back to the username.
func (u User) DisplayName() string {
	name := joinName(u.FirstName, u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// Credentials are the login form fields, sent form-encoded.
type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

// Validate applies the login form rules.
func (c Credentials) Validate() error {
	return validateStruct(c)
}

// Registration is the body of POST /users/register.
type Registration struct {
	Username  string `json:"username" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Password  string `json:"password" validate:"required"`
}

// Validate applies the registration form rules.
func (r Registration) Validate() error {
	return validateStruct(r)
}

func joinName(first, last string) string {
	switch {
	case first == "":
		return last
	case last == "":
		return first
	default:
		return first + " " + last
	}
}
