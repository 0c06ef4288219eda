package users

import "time"

// UserResponse is the outward-facing representation of an identity.
type UserResponse struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	Status     string    `json:"userStatus"`
	Department string    `json:"department"`
	JoinDate   time.Time `json:"joinDate"`
}

type sessionResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      UserResponse `json:"user"`
}

func toResponse(u Identity) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		Role:       string(u.Role),
		Status:     string(u.Status),
		Department: u.Department,
		JoinDate:   u.JoinDate,
	}
}

func toSessionResponse(s Session) sessionResponse {
	return sessionResponse{
		Token:     s.Token,
		ExpiresAt: s.ExpiresAt,
		User:      toResponse(s.User),
	}
}
