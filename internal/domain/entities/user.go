package entities

import "time"

type Role string

const (
	RoleCustomer   Role = "customer"
	RoleTechnician Role = "technician"
	RoleAdmin      Role = "admin"
)

var Roles = []Role{RoleCustomer, RoleTechnician, RoleAdmin}

// TechnicianProfile is only meaningful for users with RoleTechnician.
// Rating is a running average over TotalReviews reviews.
type TechnicianProfile struct {
	Specialties     []Category `json:"specialties"`
	ExperienceYears int        `json:"experience_years"`
	Rating          float64    `json:"rating"`
	TotalReviews    int        `json:"total_reviews"`
}

// ApplyReview returns the profile after folding one more review into the average.
func (p TechnicianProfile) ApplyReview(rating int) TechnicianProfile {
	total := p.TotalReviews + 1
	p.Rating = (p.Rating*float64(total-1) + float64(rating)) / float64(total)
	p.TotalReviews = total
	return p
}

func (p TechnicianProfile) HasSpecialty(c Category) bool {
	for _, s := range p.Specialties {
		if s == c {
			return true
		}
	}
	return false
}

type User struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	Email             string            `json:"email"`
	Phone             string            `json:"phone,omitempty"`
	Role              Role              `json:"role"`
	Active            bool              `json:"active"`
	Address           Address           `json:"address"`
	TechnicianProfile TechnicianProfile `json:"technician_profile"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}
