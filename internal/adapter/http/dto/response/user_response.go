package response

import (
	"time"

	"homeservices/internal/domain/entities"
)

type TechnicianProfileResponse struct {
	Specialties     []string `json:"specialties"`
	ExperienceYears int      `json:"experience_years"`
	Rating          float64  `json:"rating"`
	TotalReviews    int      `json:"total_reviews"`
}

type UserResponse struct {
	ID                string                     `json:"id"`
	Name              string                     `json:"name"`
	Email             string                     `json:"email"`
	Phone             string                     `json:"phone,omitempty"`
	Role              string                     `json:"role"`
	Active            bool                       `json:"active"`
	Address           AddressResponse            `json:"address"`
	TechnicianProfile *TechnicianProfileResponse `json:"technician_profile,omitempty"`
	CreatedAt         time.Time                  `json:"created_at"`
	UpdatedAt         time.Time                  `json:"updated_at"`
}

func FromUser(u entities.User) UserResponse {
	res := UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		Role:      string(u.Role),
		Active:    u.Active,
		Address:   AddressResponse(u.Address),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	if u.Role == entities.RoleTechnician {
		specialties := make([]string, 0, len(u.TechnicianProfile.Specialties))
		for _, s := range u.TechnicianProfile.Specialties {
			specialties = append(specialties, string(s))
		}
		res.TechnicianProfile = &TechnicianProfileResponse{
			Specialties:     specialties,
			ExperienceYears: u.TechnicianProfile.ExperienceYears,
			Rating:          u.TechnicianProfile.Rating,
			TotalReviews:    u.TechnicianProfile.TotalReviews,
		}
	}
	return res
}

func FromUsers(us []entities.User) []UserResponse {
	out := make([]UserResponse, 0, len(us))
	for _, u := range us {
		out = append(out, FromUser(u))
	}
	return out
}
