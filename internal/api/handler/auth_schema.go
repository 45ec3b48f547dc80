package handler

import "github.com/99minutos/auth-service/internal/core/domain"

// bcrypt only considers the first 72 bytes of a password, so longer ones
// are rejected up front.
type registerRequest struct {
	Username    string `json:"username"    validate:"required,max=64"`
	Email       string `json:"email"       validate:"required,email"`
	PhoneNumber string `json:"phoneNumber" validate:"omitempty,max=32"`
	Password    string `json:"password"    validate:"required,max=72"`
	RoleType    string `json:"roleType"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"tokenType"`
	ExpiresIn int64  `json:"expiresIn"`
}

type userResponse struct {
	User *domain.User `json:"user"`
}

type usersResponse struct {
	Users []*domain.User `json:"users"`
	Count int            `json:"count"`
}

// createUserRequest is the admin payload for POST /api/users.
type createUserRequest struct {
	Username    string `json:"username"    validate:"required,max=64"`
	Email       string `json:"email"       validate:"required,email"`
	PhoneNumber string `json:"phoneNumber" validate:"omitempty,max=32"`
	Password    string `json:"password"    validate:"required,max=72"`
	RoleType    string `json:"roleType"`
}

// updateUserRequest is the admin payload for PUT /api/users/:id. An empty
// password keeps the current one.
type updateUserRequest struct {
	Username    string `json:"username"    validate:"required,max=64"`
	Email       string `json:"email"       validate:"required,email"`
	PhoneNumber string `json:"phoneNumber" validate:"omitempty,max=32"`
	Password    string `json:"password"    validate:"omitempty,max=72"`
	RoleType    string `json:"roleType"`
}

type meResponse struct {
	Username  string      `json:"username"`
	Role      domain.Role `json:"role"`
	Authority string      `json:"authority"`
}

type homeResponse struct {
	Message   string            `json:"message"`
	Status    string            `json:"status"`
	Endpoints map[string]string `json:"endpoints"`
	Roles     []domain.RoleInfo `json:"roles"`
}

// errorResponse documents the {"error": "..."} envelope for swagger.
type errorResponse struct {
	Error string `json:"error"`
}
