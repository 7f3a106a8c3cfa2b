package model

type User struct {
	ID    ID      `json:"id"`
	Name  *string `json:"name"`
	Email string  `json:"email"`
}

// DisplayName is the name when set, the email otherwise.
func (u User) DisplayName() string {
	if u.Name != nil && *u.Name != "" {
		return *u.Name
	}
	return u.Email
}

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
