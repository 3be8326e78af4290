package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// AttributeKind drives how the admin UI renders an attribute and how many
// values a single owner may carry.
type AttributeKind string

const (
	KindText        AttributeKind = "TEXT"
	KindSelect      AttributeKind = "SELECT"
	KindMultiSelect AttributeKind = "MULTI_SELECT"
	KindNumber      AttributeKind = "NUMBER"
	KindBoolean     AttributeKind = "BOOLEAN"
	KindColor       AttributeKind = "COLOR"
	KindDate        AttributeKind = "DATE"
)

var AttributeKinds = []AttributeKind{
	KindText, KindSelect, KindMultiSelect, KindNumber, KindBoolean, KindColor, KindDate,
}

func (k AttributeKind) Valid() bool {
	for _, known := range AttributeKinds {
		if k == known {
			return true
		}
	}
	return false
}

// DataType is the storage type of an attribute's values.
type DataType string

const (
	DataTypeString  DataType = "STRING"
	DataTypeNumber  DataType = "NUMBER"
	DataTypeBoolean DataType = "BOOLEAN"
	DataTypeDate    DataType = "DATE"
)

func (d DataType) Valid() bool {
	switch d {
	case DataTypeString, DataTypeNumber, DataTypeBoolean, DataTypeDate:
		return true
	}
	return false
}

// DefaultDataType is used when a definition is created without an explicit data type.
func DefaultDataType(kind AttributeKind) DataType {
	switch kind {
	case KindNumber:
		return DataTypeNumber
	case KindBoolean:
		return DataTypeBoolean
	case KindDate:
		return DataTypeDate
	default:
		return DataTypeString
	}
}

type AssignmentScope string

const (
	ScopeProduct AssignmentScope = "PRODUCT"
	ScopeVariant AssignmentScope = "VARIANT"
)

func (s AssignmentScope) Valid() bool {
	return s == ScopeProduct || s == ScopeVariant
}

type Attribute struct {
	ID                int64            `json:"id"`
	Key               string           `json:"key"`
	Name              string           `json:"name"`
	Description       string           `json:"description"`
	Kind              AttributeKind    `json:"kind"`
	DataType          DataType         `json:"dataType"`
	IsFilterable      bool             `json:"isFilterable"`
	IsSearchable      bool             `json:"isSearchable"`
	IsRequired        bool             `json:"isRequired"`
	IsVariantSpecific bool             `json:"isVariantSpecific"`
	DisplayOrder      int              `json:"displayOrder"`
	CreatedAt         time.Time        `json:"createdAt"`
	UpdatedAt         time.Time        `json:"updatedAt"`
	Values            []AttributeValue `json:"values"`
}

type AttributeValue struct {
	ID           int64     `json:"id"`
	AttributeID  int64     `json:"attributeId"`
	Value        string    `json:"value"`
	Display      string    `json:"display"`
	ColorCode    *string   `json:"colorCode"`
	ImageURL     *string   `json:"imageUrl"`
	IsDefault    bool      `json:"isDefault"`
	DisplayOrder int       `json:"displayOrder"`
	CreatedAt    time.Time `json:"createdAt"`
}

// AttributeAssignment attaches an attribute to exactly one product or variant.
type AttributeAssignment struct {
	ID               int64               `json:"id"`
	AttributeID      int64               `json:"attributeId"`
	Scope            AssignmentScope     `json:"scope"`
	ProductID        *int64              `json:"productId"`
	VariantID        *int64              `json:"variantId"`
	AttributeValueID *int64              `json:"attributeValueId"`
	CustomValue      *string             `json:"customValue"`
	NumericValue     decimal.NullDecimal `json:"numericValue"`
	DisplayOrder     int                 `json:"displayOrder"`
	IsPrimary        bool                `json:"isPrimary"`
	CreatedAt        time.Time           `json:"createdAt"`
}

// OwnerID returns the product or variant id depending on scope.
func (a AttributeAssignment) OwnerID() int64 {
	if a.Scope == ScopeVariant && a.VariantID != nil {
		return *a.VariantID
	}
	if a.ProductID != nil {
		return *a.ProductID
	}
	return 0
}

// AssignmentInput is one requested assignment before validation.
type AssignmentInput struct {
	AttributeID      int64               `json:"attributeId"`
	AttributeValueID *int64              `json:"attributeValueId"`
	CustomValue      *string             `json:"customValue"`
	NumericValue     decimal.NullDecimal `json:"numericValue"`
	DisplayOrder     int                 `json:"displayOrder"`
	IsPrimary        bool                `json:"isPrimary"`
}

// ResolvedAssignment is an assignment joined with its definition and, when
// referenced, its enumerated value. ValueToken/ValueDisplay are nil when the
// reference is absent or dangling.
type ResolvedAssignment struct {
	AttributeAssignment
	Key          string        `json:"key"`
	Kind         AttributeKind `json:"kind"`
	DataType     DataType      `json:"dataType"`
	ValueToken   *string       `json:"valueToken"`
	ValueDisplay *string       `json:"valueDisplay"`
}

type AttributeRepository interface {
	ListAttributes(ctx context.Context, filterableOnly bool) ([]Attribute, error)
	GetAttributeByID(ctx context.Context, id int64) (*Attribute, error)
	GetAttributesByIDs(ctx context.Context, ids []int64) ([]Attribute, error)
	CreateAttribute(ctx context.Context, attr *Attribute) error
	UpdateAttribute(ctx context.Context, attr *Attribute) error
	DeleteAttribute(ctx context.Context, id int64) error

	ListValues(ctx context.Context, attributeIDs []int64) ([]AttributeValue, error)
	GetValuesByIDs(ctx context.Context, ids []int64) ([]AttributeValue, error)
	GetValueByID(ctx context.Context, id int64) (*AttributeValue, error)
	CreateValue(ctx context.Context, value *AttributeValue) error
	UpdateValue(ctx context.Context, value *AttributeValue) error
	DeleteValue(ctx context.Context, id int64) error
}

type AssignmentRepository interface {
	ListAssignments(ctx context.Context, scope AssignmentScope, ownerID int64) ([]ResolvedAssignment, error)
	InsertAssignments(ctx context.Context, rows []AttributeAssignment) error
	ReplaceVariantAssignments(ctx context.Context, variantID int64, rows []AttributeAssignment) error
	DeleteProductAssignments(ctx context.Context, productID, attributeID int64) (int64, error)
}

type AttributeUsecase interface {
	ListAttributes(ctx context.Context, filterableOnly bool) ([]Attribute, error)
	GetAttribute(ctx context.Context, id int64) (*Attribute, error)
	CreateAttribute(ctx context.Context, attr *Attribute) error
	UpdateAttribute(ctx context.Context, attr *Attribute) error
	DeleteAttribute(ctx context.Context, id int64) error
	CreateValue(ctx context.Context, value *AttributeValue) error
	UpdateValue(ctx context.Context, value *AttributeValue) error
	DeleteValue(ctx context.Context, id int64) error
	// DefinitionsByKey is the lookup the search planner uses to normalize filter values.
	DefinitionsByKey(ctx context.Context) (map[string]Attribute, error)
}

type AssignmentUsecase interface {
	Assign(ctx context.Context, scope AssignmentScope, ownerID int64, input AssignmentInput) ([]ResolvedAssignment, error)
	ListFor(ctx context.Context, scope AssignmentScope, ownerID int64) ([]ResolvedAssignment, error)
	ReplaceVariantAttributes(ctx context.Context, variantID int64, inputs []AssignmentInput) ([]ResolvedAssignment, error)
	SaveProductAttribute(ctx context.Context, productID int64, input AssignmentInput) ([]ResolvedAssignment, error)
	DeleteProductAttribute(ctx context.Context, productID, attributeID int64) error
}
