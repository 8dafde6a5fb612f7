package request

import (
	"homeservices/internal/domain/entities"
	"homeservices/internal/usecase"
)

type RegisterUserRequest struct {
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	Phone           string   `json:"phone"`
	Role            string   `json:"role"`
	Specialties     []string `json:"specialties"`
	ExperienceYears int      `json:"experience_years"`
}

func (r RegisterUserRequest) ToInput() usecase.RegisterUserInput {
	return usecase.RegisterUserInput{
		Name:            r.Name,
		Email:           r.Email,
		Phone:           r.Phone,
		Role:            entities.Role(r.Role),
		Specialties:     toCategories(r.Specialties),
		ExperienceYears: r.ExperienceYears,
	}
}

// UpdateProfileRequest: omitted fields are left unchanged.
type UpdateProfileRequest struct {
	Name    *string         `json:"name"`
	Phone   *string         `json:"phone"`
	Address *AddressRequest `json:"address"`
}

func (r UpdateProfileRequest) ToInput() usecase.UpdateProfileInput {
	in := usecase.UpdateProfileInput{Name: r.Name, Phone: r.Phone}
	if r.Address != nil {
		addr := r.Address.toEntity()
		in.Address = &addr
	}
	return in
}

type UpdateTechnicianProfileRequest struct {
	Specialties     []string `json:"specialties"`
	ExperienceYears *int     `json:"experience_years"`
}

func (r UpdateTechnicianProfileRequest) ToInput() usecase.UpdateTechnicianProfileInput {
	return usecase.UpdateTechnicianProfileInput{
		Specialties:     toCategories(r.Specialties),
		ExperienceYears: r.ExperienceYears,
	}
}

func toCategories(in []string) []entities.Category {
	if in == nil {
		return nil
	}
	out := make([]entities.Category, 0, len(in))
	for _, s := range in {
		out = append(out, entities.Category(s))
	}
	return out
}
