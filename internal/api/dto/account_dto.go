package dto

import "github.com/comexdesk/broker-portal/internal/domain"

// RegisterRequest carries the full registration wizard payload.
type RegisterRequest struct {
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Role       string `json:"role"`
	PersonType string `json:"personType"`

	FullName string `json:"fullName,omitempty"`
	CPF      string `json:"cpf,omitempty"`

	LegalName       string `json:"legalName,omitempty"`
	CNPJ            string `json:"cnpj,omitempty"`
	ResponsibleName string `json:"responsibleName,omitempty"`
	ResponsibleCPF  string `json:"responsibleCpf,omitempty"`

	Address AddressPayload `json:"address"`

	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// AddressPayload mirrors domain.Address on the wire.
type AddressPayload struct {
	CEP          string `json:"cep"`
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement,omitempty"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
}

// ToAddress converts the payload to the domain type.
func (a AddressPayload) ToAddress() domain.Address {
	return domain.Address{
		CEP:          a.CEP,
		Street:       a.Street,
		Number:       a.Number,
		Complement:   a.Complement,
		Neighborhood: a.Neighborhood,
		City:         a.City,
		State:        a.State,
	}
}

// AddressFromDomain converts a domain address to its payload form.
func AddressFromDomain(addr domain.Address) AddressPayload {
	return AddressPayload{
		CEP:          addr.CEP,
		Street:       addr.Street,
		Number:       addr.Number,
		Complement:   addr.Complement,
		Neighborhood: addr.Neighborhood,
		City:         addr.City,
		State:        addr.State,
	}
}

// LoginRequest payload for sign-in.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse returns the raw session token.
type SessionResponse struct {
	Token string `json:"token"`
}

// IdentityResponse is the caller-visible identity snapshot.
type IdentityResponse struct {
	ID          string         `json:"id"`
	Email       string         `json:"email"`
	Role        string         `json:"role"`
	PersonType  string         `json:"personType"`
	DisplayName string         `json:"displayName"`
	Document    string         `json:"document"`
	Phone       string         `json:"phone"`
	Address     AddressPayload `json:"address"`
}

// IdentityFromDomain maps an identity snapshot onto the wire form.
func IdentityFromDomain(identity *domain.Identity) IdentityResponse {
	resp := IdentityResponse{
		ID:          identity.ID,
		Email:       identity.Email,
		Role:        string(identity.Role),
		DisplayName: identity.DisplayName(),
		Phone:       identity.Phone,
		Address:     AddressFromDomain(identity.Address),
	}
	if identity.Person != nil {
		resp.PersonType = string(identity.Person.PersonType())
		resp.Document = identity.Person.DocumentNumber()
	}
	return resp
}

// ProfileUpdateRequest carries owner-editable profile fields.
type ProfileUpdateRequest struct {
	FullName        string         `json:"fullName,omitempty"`
	LegalName       string         `json:"legalName,omitempty"`
	ResponsibleName string         `json:"responsibleName,omitempty"`
	ResponsibleCPF  string         `json:"responsibleCpf,omitempty"`
	Phone           string         `json:"phone"`
	Address         AddressPayload `json:"address"`
}

// PostalHintResponse is the best-effort address prefill.
type PostalHintResponse struct {
	Street       string `json:"street"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
	Complement   string `json:"complement,omitempty"`
}
