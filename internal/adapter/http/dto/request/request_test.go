package request

import (
	"encoding/json"
	"testing"

	"homeservices/internal/domain/entities"

	"github.com/shopspring/decimal"
)

func TestCreateQuoteRequest_AcceptsStringAndNumberAmounts(t *testing.T) {
	var r CreateQuoteRequest
	if err := json.Unmarshal([]byte(`{"service_id":" s1 ","amount":"150.10","labor_cost":100,"materials_cost":"50.10"}`), &r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	in := r.ToInput("tech-1")
	if in.ServiceID != "s1" || in.TechnicianID != "tech-1" {
		t.Fatalf("unexpected ids: %+v", in)
	}
	if !in.Amount.Equal(decimal.RequireFromString("150.10")) || !in.LaborCost.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("unexpected amounts: %s %s", in.Amount, in.LaborCost)
	}
}

func TestUpdateProfileRequest_ToInput(t *testing.T) {
	var r UpdateProfileRequest
	if err := json.Unmarshal([]byte(`{"phone":"555","address":{"city":"Austin"}}`), &r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	in := r.ToInput()
	if in.Name != nil {
		t.Fatalf("name must stay unset")
	}
	if in.Phone == nil || *in.Phone != "555" || in.Address == nil || in.Address.City != "Austin" {
		t.Fatalf("unexpected input: %+v", in)
	}
}

func TestUpdateTechnicianProfileRequest_ToInput(t *testing.T) {
	in := UpdateTechnicianProfileRequest{Specialties: []string{"gas", "plumbing"}}.ToInput()
	if len(in.Specialties) != 2 || in.Specialties[0] != entities.CategoryGas {
		t.Fatalf("unexpected specialties: %+v", in.Specialties)
	}
	if (UpdateTechnicianProfileRequest{}).ToInput().Specialties != nil {
		t.Fatalf("omitted specialties must stay nil")
	}
}
