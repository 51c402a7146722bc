package models

import "time"

// OrganizationType classifies an organization.
type OrganizationType string

const (
	OrgTypeBrand             OrganizationType = "brand"
	OrgTypeAgency            OrganizationType = "agency"
	OrgTypeCreatorCollective OrganizationType = "creator_collective"
)

// Valid reports whether t is a known organization type.
func (t OrganizationType) Valid() bool {
	switch t {
	case OrgTypeBrand, OrgTypeAgency, OrgTypeCreatorCollective:
		return true
	}
	return false
}

// Organization groups users under a brand, agency or creator collective.
type Organization struct {
	ID          string           `bson:"id" json:"id"`
	Name        string           `bson:"name" json:"name"`
	NameCI      string           `bson:"nameCi" json:"-"`
	Type        OrganizationType `bson:"type" json:"type"`
	Industry    string           `bson:"industry,omitempty" json:"industry,omitempty"`
	Website     string           `bson:"website,omitempty" json:"website,omitempty"`
	OwnerID     string           `bson:"ownerId,omitempty" json:"ownerId,omitempty"`
	MemberCount int              `bson:"memberCount" json:"memberCount"`
	PlanID      string           `bson:"planId,omitempty" json:"planId,omitempty"`
	Status      string           `bson:"status" json:"status"`
	CreatedAt   time.Time        `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time        `bson:"updatedAt" json:"updatedAt"`
}

// OrganizationQuery filters the organization list.
type OrganizationQuery struct {
	Q        string           `form:"q"`
	Type     OrganizationType `form:"type"`
	Status   string           `form:"status"`
	Page     int              `form:"page"`
	PageSize int              `form:"pageSize"`
}

// Organization statuses.
const (
	OrgStatusActive    = "active"
	OrgStatusSuspended = "suspended"
)

// OrganizationUpdate is a partial update; nil fields are left untouched.
type OrganizationUpdate struct {
	Name     *string           `json:"name,omitempty"`
	Type     *OrganizationType `json:"type,omitempty"`
	Industry *string           `json:"industry,omitempty"`
	Website  *string           `json:"website,omitempty"`
	PlanID   *string           `json:"planId,omitempty"`
	Status   *string           `json:"status,omitempty"`
}
