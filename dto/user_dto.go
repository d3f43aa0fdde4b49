package dto

type UpdateProfileDTO struct {
	Name    *string `json:"name,omitempty" binding:"omitempty,min=2"`
	Profile *string `json:"profile,omitempty"`
}

type UpdateRoleDTO struct {
	Role string `json:"role" binding:"required,oneof=guest user admin"`
}
