package domain

import "time"

// Role distinguishes the two sides of the portal. Fixed at registration.
type Role string

const (
	RoleImporter Role = "IMPORTER"
	RoleBroker   Role = "BROKER"
)

// PersonType distinguishes natural persons from organizations.
type PersonType string

const (
	PersonTypeIndividual   PersonType = "INDIVIDUAL"
	PersonTypeOrganization PersonType = "ORGANIZATION"
)

// PersonDetails is the tagged union over person types. Exactly one of
// Individual or Organization implements it for a given Identity, so
// invalid field combinations cannot be constructed.
type PersonDetails interface {
	PersonType() PersonType
	DisplayName() string
	DocumentNumber() string
}

// Individual holds natural-person fields.
type Individual struct {
	FullName string
	CPF      string
}

func (i Individual) PersonType() PersonType { return PersonTypeIndividual }
func (i Individual) DisplayName() string    { return i.FullName }
func (i Individual) DocumentNumber() string { return i.CPF }

// Organization holds legal-entity fields plus the responsible party.
type Organization struct {
	LegalName       string
	CNPJ            string
	ResponsibleName string
	ResponsibleCPF  string
}

func (o Organization) PersonType() PersonType { return PersonTypeOrganization }
func (o Organization) DisplayName() string    { return o.LegalName }
func (o Organization) DocumentNumber() string { return o.CNPJ }

// Address is a structured Brazilian postal address.
type Address struct {
	CEP          string
	Street       string
	Number       string
	Complement   string
	Neighborhood string
	City         string
	State        string
}

// Identity is the resolved, role-tagged representation of an
// authenticated principal. Snapshots are immutable: SessionResolver
// publishes a fresh value on every resolution rather than mutating one
// in place.
type Identity struct {
	ID      string
	Email   string
	Role    Role
	Person  PersonDetails
	Phone   string
	Address Address
	Deleted bool
}

// DisplayName is the individual's full name or the organization name.
func (id *Identity) DisplayName() string {
	if id == nil || id.Person == nil {
		return ""
	}
	return id.Person.DisplayName()
}

// Authenticatable reports whether the identity may act. Soft-deleted
// identities are never authenticatable.
func (id *Identity) Authenticatable() bool {
	return id != nil && !id.Deleted
}

// ProfileRecord is the durable per-principal record held by the
// ProfileStore. It maps 1:1 to Identity minus ID and Email, which come
// from the auth principal.
type ProfileRecord struct {
	Role            Role
	PersonType      PersonType
	FullName        string
	CPF             string
	LegalName       string
	CNPJ            string
	ResponsibleName string
	ResponsibleCPF  string
	Phone           string
	Address         Address
	Deleted         bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Person materializes the tagged union from the flat record fields.
func (r *ProfileRecord) Person() PersonDetails {
	if r.PersonType == PersonTypeOrganization {
		return Organization{
			LegalName:       r.LegalName,
			CNPJ:            r.CNPJ,
			ResponsibleName: r.ResponsibleName,
			ResponsibleCPF:  r.ResponsibleCPF,
		}
	}
	return Individual{FullName: r.FullName, CPF: r.CPF}
}

// NewIdentity assembles an Identity snapshot from the auth principal and
// its profile record.
func NewIdentity(principalID, email string, record *ProfileRecord) *Identity {
	return &Identity{
		ID:      principalID,
		Email:   email,
		Role:    record.Role,
		Person:  record.Person(),
		Phone:   record.Phone,
		Address: record.Address,
		Deleted: record.Deleted,
	}
}
