// Package entity declares the RealtyPress tables exposed through GraphQL.
//
// The set of entities is closed. Each one has a fixed table, primary key and
// ordered column list; only the WordPress table prefix is configurable, and it
// is applied once when the Registry is built.
package entity

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jinzhu/inflection"

	"realtypress-graphql/internal/sqltype"
	"realtypress-graphql/internal/sqlutil"
)

// Kind identifies one of the projected entities.
type Kind int

const (
	Property Kind = iota
	PropertyPhoto
	PropertyRoom
	RealtyAgent
	RealtyOffice
	RealtyBoard

	kindCount
)

// String returns the GraphQL type name of the kind.
func (k Kind) String() string {
	if k < 0 || k >= kindCount {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return specs[k].typeName
}

// Column is a table column and the scalar it is exposed as.
type Column struct {
	Name string
	Type sqltype.GraphQLType
}

// Relation links rows of one entity to rows of another by matching column
// values. The link is not a declared foreign key in the RealtyPress schema.
type Relation struct {
	Field       string
	Description string
	From        Kind
	FromColumn  string
	To          Kind
	ToColumn    string
	Many        bool
	OrderBy     string
}

// Definition is the resolved description of one entity.
type Definition struct {
	Kind        Kind
	TypeName    string
	Table       string
	PrimaryKey  string
	KeyType     sqltype.GraphQLType
	Description string
	Columns     []Column

	listField string
	columnSet map[string]int
}

type definitionSpec struct {
	typeName  string
	table     string
	pk        string
	keyType   sqltype.GraphQLType
	noun      string
	listField string
	columns   []Column
}

var specs = [kindCount]definitionSpec{
	Property:      {"Property", "rps_property", "property_id", str, "Property", "properties", propertyColumns},
	PropertyPhoto: {"PropertyPhoto", "rps_property_photos", "details_id", str, "Photo", "", propertyPhotoColumns},
	PropertyRoom:  {"PropertyRoom", "rps_property_rooms", "room_id", str, "Room", "", propertyRoomColumns},
	RealtyAgent:   {"RealtyAgent", "rps_agent", "agent_id", str, "Agent", "", realtyAgentColumns},
	RealtyOffice:  {"RealtyOffice", "rps_office", "office_id", str, "Office", "", realtyOfficeColumns},
	RealtyBoard:   {"RealtyBoard", "rps_boards", "OrganizationID", integer, "Board", "", realtyBoardColumns},
}

var relations = []Relation{
	{Field: "photos", Description: "Photos for this property", From: Property, FromColumn: "ListingID", To: PropertyPhoto, ToColumn: "ListingID", Many: true, OrderBy: "SequenceID"},
	{Field: "rooms", Description: "Rooms for this property", From: Property, FromColumn: "ListingID", To: PropertyRoom, ToColumn: "ListingID", Many: true},
	{Field: "property", Description: "Property this photo belongs to", From: PropertyPhoto, FromColumn: "ListingID", To: Property, ToColumn: "ListingID"},
	{Field: "property", Description: "Property this room belongs to", From: PropertyRoom, FromColumn: "ListingID", To: Property, ToColumn: "ListingID"},
	{Field: "office", Description: "Office this agent belongs to", From: RealtyAgent, FromColumn: "OfficeID", To: RealtyOffice, ToColumn: "OfficeID"},
}

// Plural returns the pluralized type name used for connection naming.
func (d *Definition) Plural() string {
	return inflection.Plural(d.TypeName)
}

// ConnectionTypeName returns the Relay connection type name, e.g. PropertiesConnection.
func (d *Definition) ConnectionTypeName() string {
	return d.Plural() + "Connection"
}

// EdgeTypeName returns the Relay edge type name.
func (d *Definition) EdgeTypeName() string {
	return d.ConnectionTypeName() + "Edge"
}

// ListFieldName returns the root query field listing this entity.
func (d *Definition) ListFieldName() string {
	if d.listField != "" {
		return d.listField
	}
	return "all" + d.Plural()
}

// SingleFieldName returns the root query field fetching one row by global ID.
func (d *Definition) SingleFieldName() string {
	return strings.ToLower(d.TypeName[:1]) + d.TypeName[1:]
}

// ColumnNames returns the column names in table order.
func (d *Definition) ColumnNames() []string {
	names := make([]string, len(d.Columns))
	for i, col := range d.Columns {
		names[i] = col.Name
	}
	return names
}

// Column looks up a column by name.
func (d *Definition) Column(name string) (Column, bool) {
	idx, ok := d.columnSet[name]
	if !ok {
		return Column{}, false
	}
	return d.Columns[idx], true
}

// FieldDescription describes the GraphQL field backed by column.
func (d *Definition) FieldDescription(column string) string {
	return fmt.Sprintf("Column %s from %s", column, d.Table)
}

// IDDescription describes the global id field.
func (d *Definition) IDDescription() string {
	return fmt.Sprintf("Relay-compliant global ID derived from the primary key of %s.", d.Table)
}

// ParseKey converts a raw key taken from a global ID into the value bound
// against the primary key column.
func (d *Definition) ParseKey(raw string) (interface{}, error) {
	if d.KeyType != sqltype.TypeInt {
		return raw, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s key %q: expected integer", d.TypeName, raw)
	}
	return v, nil
}

// Registry holds the definitions for one table prefix.
type Registry struct {
	prefix string
	defs   [kindCount]*Definition
	byType map[string]*Definition
}

// New builds the registry for the given WordPress table prefix.
func New(prefix string) (*Registry, error) {
	if !sqlutil.ValidTablePrefix(prefix) {
		return nil, fmt.Errorf("invalid table prefix %q: only letters, digits and underscores are allowed", prefix)
	}
	r := &Registry{
		prefix: prefix,
		byType: make(map[string]*Definition, kindCount),
	}
	for k := Property; k < kindCount; k++ {
		s := specs[k]
		table := prefix + s.table
		def := &Definition{
			Kind:        k,
			TypeName:    s.typeName,
			Table:       table,
			PrimaryKey:  s.pk,
			KeyType:     s.keyType,
			Description: s.noun + " record from RealtyPress",
			Columns:     s.columns,
			listField:   s.listField,
			columnSet:   make(map[string]int, len(s.columns)),
		}
		for i, col := range s.columns {
			def.columnSet[col.Name] = i
		}
		r.defs[k] = def
		r.byType[def.TypeName] = def
	}
	return r, nil
}

// Prefix returns the WordPress table prefix.
func (r *Registry) Prefix() string {
	return r.prefix
}

// All returns every definition in Kind order.
func (r *Registry) All() []*Definition {
	out := make([]*Definition, 0, kindCount)
	for _, def := range r.defs {
		out = append(out, def)
	}
	return out
}

// Lookup returns the definition for kind.
func (r *Registry) Lookup(kind Kind) *Definition {
	if kind < 0 || kind >= kindCount {
		return nil
	}
	return r.defs[kind]
}

// ByTypeName resolves a GraphQL type name to its definition.
func (r *Registry) ByTypeName(name string) (*Definition, bool) {
	def, ok := r.byType[name]
	return def, ok
}

// Relations returns the relations whose parent is kind.
func (r *Registry) Relations(kind Kind) []Relation {
	var out []Relation
	for _, rel := range relations {
		if rel.From == kind {
			out = append(out, rel)
		}
	}
	return out
}
