package dto

type UserView struct {
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Phone    string   `json:"phone"`
	Role     string   `json:"role"`
	Groups   []string `json:"groups"`
	Enabled  bool     `json:"enabled"`
	Status   string   `json:"status"`
	Created  string   `json:"created"`
}

type UsersResponse struct {
	Users []UserView `json:"users"`
}

type UpdateUserRoleRequest struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

type BlockUserRequest struct {
	Username string `json:"username"`
	Block    *bool  `json:"block"`
}

type DeleteUserRequest struct {
	Username string `json:"username"`
}

type CreateRoleRequest struct {
	RoleName    string   `json:"roleName"`
	Permissions []string `json:"permissions"`
}

type DeleteRoleRequest struct {
	RoleName string `json:"roleName"`
}

type DeleteHistoryRequest struct {
	UserID    string `json:"userId"`
	Timestamp string `json:"timestamp"`
}

type HistoryResponse struct {
	History []HistoryItem `json:"history"`
}
