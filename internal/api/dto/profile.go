package dto

type ProfileDTO struct {
	ID          uint64 `json:"id"`
	Phone       string `json:"phone"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

type UpdateProfileReq struct {
	DisplayName *string `json:"display_name" validate:"omitempty,min=1,max=50"`
	AvatarURL   *string `json:"avatar_url" validate:"omitempty,url"`
}
