package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"homeservices/internal/adapter/http/handlers/mocks"
	"homeservices/internal/domain/entities"
	"homeservices/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

func TestUserHandler_RegisterUser(t *testing.T) {
	ctrl := gomock.NewController(t)
	uc := mocks.NewMockIUserUseCase(ctrl)
	h := NewUserHandler(uc, zap.NewNop())

	r := newTestRouter("admin-1", entities.RoleAdmin)
	r.POST("/v1/users", h.RegisterUser)

	uc.EXPECT().RegisterUser(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ any, in usecase.RegisterUserInput) (entities.User, error) {
			assert.Equal(t, entities.RoleTechnician, in.Role)
			assert.Equal(t, []entities.Category{entities.CategoryGas}, in.Specialties)
			return entities.User{
				ID: "tech-1", Email: in.Email, Role: in.Role, Active: true,
				TechnicianProfile: entities.TechnicianProfile{Specialties: in.Specialties},
			}, nil
		})
	uc.EXPECT().RegisterUser(gomock.Any(), gomock.Any()).Return(entities.User{}, usecase.ErrEmailTaken)

	body := `{"name":"Ana","email":"ana@example.com","role":"technician","specialties":["gas"]}`
	w := doJSON(r, http.MethodPost, "/v1/users", body)
	require.Equal(t, http.StatusCreated, w.Code)

	var created map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "tech-1", created["id"])
	assert.NotNil(t, created["technician_profile"])

	w = doJSON(r, http.MethodPost, "/v1/users", body)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "EMAIL_TAKEN", decodeError(t, w).Code)
}

func TestUserHandler_Profile(t *testing.T) {
	ctrl := gomock.NewController(t)
	uc := mocks.NewMockIUserUseCase(ctrl)
	h := NewUserHandler(uc, zap.NewNop())

	r := newTestRouter("cust-1", entities.RoleCustomer)
	r.GET("/v1/users/me", h.GetProfile)
	r.PATCH("/v1/users/me", h.UpdateProfile)
	r.PATCH("/v1/users/me/technician-profile", h.UpdateTechnicianProfile)

	uc.EXPECT().GetProfile(gomock.Any(), "cust-1").Return(entities.User{ID: "cust-1", Role: entities.RoleCustomer}, nil)
	uc.EXPECT().UpdateProfile(gomock.Any(), "cust-1", gomock.Any()).DoAndReturn(
		func(_ any, _ string, in usecase.UpdateProfileInput) (entities.User, error) {
			require.NotNil(t, in.Name)
			assert.Equal(t, "Bea", *in.Name)
			assert.Nil(t, in.Phone)
			return entities.User{ID: "cust-1", Name: *in.Name}, nil
		})
	uc.EXPECT().UpdateTechnicianProfile(gomock.Any(), "cust-1", gomock.Any()).Return(entities.User{}, usecase.ErrTechniciansOnly)

	w := doJSON(r, http.MethodGet, "/v1/users/me", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "technician_profile")

	w = doJSON(r, http.MethodPatch, "/v1/users/me", `{"name":"Bea"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodPatch, "/v1/users/me/technician-profile", `{"experience_years":3}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUserHandler_ListTechnicians(t *testing.T) {
	ctrl := gomock.NewController(t)
	uc := mocks.NewMockIUserUseCase(ctrl)
	h := NewUserHandler(uc, zap.NewNop())

	r := newTestRouter("cust-1", entities.RoleCustomer)
	r.GET("/v1/technicians", h.ListTechnicians)

	uc.EXPECT().ListTechnicians(gomock.Any(), entities.CategoryPlumbing).Return([]entities.User{
		{ID: "tech-1", Role: entities.RoleTechnician},
	}, nil)

	w := doJSON(r, http.MethodGet, "/v1/technicians?category=plumbing", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 1)
}
