package resolver

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/graphql-go/graphql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realtypress-graphql/internal/cursor"
	"realtypress-graphql/internal/entity"
	"realtypress-graphql/internal/nodeid"
	"realtypress-graphql/internal/planner"
)

func TestBuildGraphQLSchema_RootFields(t *testing.T) {
	db, _ := newMockDB(t)
	defer db.Close()
	schema := newSchema(t, db, Options{})

	root := schema.QueryType().Fields()
	for _, name := range []string{
		"properties", "allPropertyPhotos", "allPropertyRooms", "allRealtyAgents", "allRealtyBoards", "allRealtyOffices",
		"property", "propertyPhoto", "propertyRoom", "realtyAgent", "realtyOffice", "realtyBoard", "node",
	} {
		assert.Contains(t, root, name)
	}
	assert.Equal(t, "RootQuery", schema.QueryType().Name())
	assert.Equal(t, "PropertiesConnection", root["properties"].Type.Name())
	assert.Equal(t, "PropertyPhotosConnection", root["allPropertyPhotos"].Type.Name())

	var whereArg *graphql.Argument
	for _, arg := range root["properties"].Args {
		if arg.Name() == "where" {
			whereArg = arg
		}
	}
	require.NotNil(t, whereArg)
	assert.Equal(t, "PropertyFilterInput", whereArg.Type.Name())
	assert.Equal(t, "Filter properties by field values", whereArg.Description())

	for _, arg := range root["allRealtyAgents"].Args {
		assert.NotEqual(t, "where", arg.Name())
	}
}

func TestBuildGraphQLSchema_ObjectTypes(t *testing.T) {
	db, _ := newMockDB(t)
	defer db.Close()
	schema := newSchema(t, db, Options{})

	property, ok := schema.Type("Property").(*graphql.Object)
	require.True(t, ok)
	assert.Equal(t, "Property record from RealtyPress", property.Description())
	fields := property.Fields()
	assert.Equal(t, "Relay-compliant global ID derived from the primary key of wp_rps_property.", fields["id"].Description)
	assert.Equal(t, "ID!", fields["id"].Type.String())
	assert.Equal(t, "Float", fields["Price"].Type.Name())
	assert.Equal(t, "Int", fields["BedroomsTotal"].Type.Name())
	assert.Equal(t, "Boolean", fields["Sold"].Type.Name())
	assert.Equal(t, "Column City from wp_rps_property", fields["City"].Description)
	assert.Equal(t, "[PropertyPhoto]", fields["photos"].Type.String())
	assert.Equal(t, "Photos for this property", fields["photos"].Description)

	ifaces := property.Interfaces()
	require.Len(t, ifaces, 2)
	assert.Equal(t, "Node", ifaces[0].Name())
	assert.Equal(t, "DatabaseIdentifier", ifaces[1].Name())

	agent, ok := schema.Type("RealtyAgent").(*graphql.Object)
	require.True(t, ok)
	assert.Equal(t, "RealtyOffice", agent.Fields()["office"].Type.Name())

	input, ok := schema.Type("PropertyFilterInput").(*graphql.InputObject)
	require.True(t, ok)
	assert.Equal(t, "Filter properties by various fields", input.Description())
	assert.Contains(t, input.Fields(), "City")
	assert.Contains(t, input.Fields(), "minPrice")
}

func TestGlobalIDResolver_MissingPrimaryKey(t *testing.T) {
	def := testRegistry(t).Lookup(entity.Property)
	resolve := globalIDResolver(def)

	v, err := resolve(graphql.ResolveParams{Source: map[string]interface{}{"City": "Toronto"}})
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = resolve(graphql.ResolveParams{Source: map[string]interface{}{"property_id": nil}})
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = resolve(graphql.ResolveParams{Source: map[string]interface{}{"property_id": "12"}})
	require.NoError(t, err)
	assert.Equal(t, nodeid.Encode("Property", "12"), v)
}

func TestPropertyLookup(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()
	def := testRegistry(t).Lookup(entity.Property)
	schema := newSchema(t, db, Options{})

	q, err := planner.PlanByPK(def, "42")
	require.NoError(t, err)
	expectQuery(t, mock, q.SQL, q.Args, entityRows(def, map[string]interface{}{
		"property_id": "42", "City": "Toronto", "Price": "525000.00", "BedroomsTotal": "3", "Sold": int64(0),
	}))

	id := nodeid.Encode("Property", "42")
	result := execute(context.Background(), schema, fmt.Sprintf(`{ property(id: %q) { id databaseId City Price BedroomsTotal Sold } }`, id))
	require.Empty(t, result.Errors)

	prop := result.Data.(map[string]interface{})["property"].(map[string]interface{})
	assert.Equal(t, id, prop["id"])
	assert.Equal(t, "42", prop["databaseId"])
	assert.Equal(t, "Toronto", prop["City"])
	assert.Equal(t, 525000.0, prop["Price"])
	assert.Equal(t, 3, prop["BedroomsTotal"])
	assert.Equal(t, false, prop["Sold"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPropertyLookup_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()
	def := testRegistry(t).Lookup(entity.Property)
	schema := newSchema(t, db, Options{})

	q, err := planner.PlanByPK(def, "999")
	require.NoError(t, err)
	expectQuery(t, mock, q.SQL, q.Args, entityRows(def))

	result := execute(context.Background(), schema, fmt.Sprintf(`{ property(id: %q) { City } }`, nodeid.Encode("Property", "999")))
	require.Empty(t, result.Errors)
	assert.Nil(t, result.Data.(map[string]interface{})["property"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPropertyLookup_TypeMismatch(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()
	schema := newSchema(t, db, Options{})

	result := execute(context.Background(), schema, fmt.Sprintf(`{ property(id: %q) { City } }`, nodeid.Encode("RealtyOffice", "7")))
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Message, "id type mismatch")
	assert.Contains(t, result.Errors[0].Message, "expected Property, got RealtyOffice")
	assert.Nil(t, result.Data.(map[string]interface{})["property"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPropertyLookup_MalformedID(t *testing.T) {
	db, _ := newMockDB(t)
	defer db.Close()
	schema := newSchema(t, db, Options{})

	result := execute(context.Background(), schema, `{ property(id: "not-an-id!") { City } }`)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Message, "invalid id")
}

func TestBoardLookup_IntegerKey(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()
	def := testRegistry(t).Lookup(entity.RealtyBoard)
	schema := newSchema(t, db, Options{})

	q, err := planner.PlanByPK(def, int64(17))
	require.NoError(t, err)
	expectQuery(t, mock, q.SQL, q.Args, entityRows(def, map[string]interface{}{
		"OrganizationID": int64(17), "ShortName": "TRREB", "LongName": "Toronto Regional Real Estate Board",
	}))

	result := execute(context.Background(), schema, fmt.Sprintf(`{ realtyBoard(id: %q) { OrganizationID ShortName } }`, nodeid.Encode("RealtyBoard", 17)))
	require.Empty(t, result.Errors)
	board := result.Data.(map[string]interface{})["realtyBoard"].(map[string]interface{})
	assert.Equal(t, 17, board["OrganizationID"])
	assert.Equal(t, "TRREB", board["ShortName"])

	result = execute(context.Background(), schema, fmt.Sprintf(`{ realtyBoard(id: %q) { ShortName } }`, nodeid.Encode("RealtyBoard", "abc")))
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Message, "invalid id")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNodeLookup(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()
	def := testRegistry(t).Lookup(entity.RealtyOffice)
	schema := newSchema(t, db, Options{})

	q, err := planner.PlanByPK(def, "5")
	require.NoError(t, err)
	expectQuery(t, mock, q.SQL, q.Args, entityRows(def, map[string]interface{}{
		"office_id": "5", "OfficeID": "O-5", "Name": "Harbour Realty", "CustomOffice": "1",
	}))

	id := nodeid.Encode("RealtyOffice", "5")
	result := execute(context.Background(), schema, fmt.Sprintf(`{ node(id: %q) { __typename id ... on RealtyOffice { Name CustomOffice } } }`, id))
	require.Empty(t, result.Errors)
	node := result.Data.(map[string]interface{})["node"].(map[string]interface{})
	assert.Equal(t, "RealtyOffice", node["__typename"])
	assert.Equal(t, id, node["id"])
	assert.Equal(t, "Harbour Realty", node["Name"])
	assert.Equal(t, true, node["CustomOffice"])

	result = execute(context.Background(), schema, fmt.Sprintf(`{ node(id: %q) { id } }`, nodeid.Encode("Unknown", "5")))
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Message, "unknown type Unknown")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPropertiesConnection_Filter(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()
	def := testRegistry(t).Lookup(entity.Property)
	schema := newSchema(t, db, Options{})

	expectQuery(t, mock,
		"SELECT `property_id` FROM `wp_rps_property` WHERE (`City` = ? AND `Price` >= ?)",
		[]interface{}{"Toronto", 500000.0},
		sqlmock.NewRows([]string{"property_id"}).AddRow("2").AddRow("3"))
	page, err := planner.PlanByPKs(def, []interface{}{"2", "3"})
	require.NoError(t, err)
	expectQuery(t, mock, page.SQL, page.Args, entityRows(def,
		map[string]interface{}{"property_id": "3", "City": "Toronto", "Price": 1250000.0},
		map[string]interface{}{"property_id": "2", "City": "Toronto", "Price": 500000.0},
	))

	result := execute(context.Background(), schema, `{
		properties(where: {City: "Toronto", minPrice: 500000}) {
			totalCount
			nodes { databaseId Price }
			pageInfo { hasNextPage hasPreviousPage }
		}
	}`)
	require.Empty(t, result.Errors)
	conn := result.Data.(map[string]interface{})["properties"].(map[string]interface{})
	assert.Equal(t, 2, conn["totalCount"])
	nodes := conn["nodes"].([]interface{})
	require.Len(t, nodes, 2)
	assert.Equal(t, "2", nodes[0].(map[string]interface{})["databaseId"], "page order follows the key listing")
	assert.Equal(t, "3", nodes[1].(map[string]interface{})["databaseId"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPropertiesConnection_EmptyCityIgnored(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()
	schema := newSchema(t, db, Options{})

	expectQuery(t, mock, "SELECT `property_id` FROM `wp_rps_property`", nil,
		sqlmock.NewRows([]string{"property_id"}))

	result := execute(context.Background(), schema, `{ properties(where: {City: ""}) { totalCount } }`)
	require.Empty(t, result.Errors)
	conn := result.Data.(map[string]interface{})["properties"].(map[string]interface{})
	assert.Equal(t, 0, conn["totalCount"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConnection_Pagination(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()
	def := testRegistry(t).Lookup(entity.RealtyAgent)
	schema := newSchema(t, db, Options{})

	keys := sqlmock.NewRows([]string{"agent_id"}).AddRow("a1").AddRow("a2").AddRow("a3").AddRow("a4")
	expectQuery(t, mock, "SELECT `agent_id` FROM `wp_rps_agent`", nil, keys)
	page, err := planner.PlanByPKs(def, []interface{}{"a2", "a3"})
	require.NoError(t, err)
	expectQuery(t, mock, page.SQL, page.Args, entityRows(def,
		map[string]interface{}{"agent_id": "a2", "Name": "Bea"},
		map[string]interface{}{"agent_id": "a3", "Name": "Cal"},
	))

	after := cursor.Encode("RealtyAgentsConnection", 0)
	result := execute(context.Background(), schema, fmt.Sprintf(`{
		allRealtyAgents(first: 2, after: %q) {
			edges { cursor node { Name } }
			pageInfo { hasNextPage hasPreviousPage startCursor endCursor }
			totalCount
		}
	}`, after))
	require.Empty(t, result.Errors)

	conn := result.Data.(map[string]interface{})["allRealtyAgents"].(map[string]interface{})
	edges := conn["edges"].([]interface{})
	require.Len(t, edges, 2)
	assert.Equal(t, "Bea", edges[0].(map[string]interface{})["node"].(map[string]interface{})["Name"])
	assert.Equal(t, cursor.Encode("RealtyAgentsConnection", 1), edges[0].(map[string]interface{})["cursor"])

	pageInfo := conn["pageInfo"].(map[string]interface{})
	assert.Equal(t, true, pageInfo["hasNextPage"])
	assert.Equal(t, true, pageInfo["hasPreviousPage"])
	assert.Equal(t, cursor.Encode("RealtyAgentsConnection", 2), pageInfo["endCursor"])
	assert.Equal(t, 4, conn["totalCount"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConnection_ForeignCursorRejected(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()
	schema := newSchema(t, db, Options{})

	expectQuery(t, mock, "SELECT `agent_id` FROM `wp_rps_agent`", nil,
		sqlmock.NewRows([]string{"agent_id"}).AddRow("a1"))

	after := cursor.Encode("PropertiesConnection", 0)
	result := execute(context.Background(), schema, fmt.Sprintf(`{ allRealtyAgents(after: %q) { totalCount } }`, after))
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Message, "cursor type mismatch")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConnection_NegativeFirstRejected(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()
	schema := newSchema(t, db, Options{})

	result := execute(context.Background(), schema, `{ allRealtyBoards(first: -1) { totalCount } }`)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Message, "first must be non-negative")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConnection_DefaultLimit(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()
	def := testRegistry(t).Lookup(entity.RealtyBoard)
	schema := newSchema(t, db, Options{DefaultLimit: 1})

	expectQuery(t, mock, "SELECT `OrganizationID` FROM `wp_rps_boards`", nil,
		sqlmock.NewRows([]string{"OrganizationID"}).AddRow(int64(1)).AddRow(int64(2)))
	page, err := planner.PlanByPKs(def, []interface{}{int64(1)})
	require.NoError(t, err)
	expectQuery(t, mock, page.SQL, page.Args, entityRows(def,
		map[string]interface{}{"OrganizationID": int64(1), "ShortName": "A"},
	))

	result := execute(context.Background(), schema, `{ allRealtyBoards { nodes { ShortName } pageInfo { hasNextPage } } }`)
	require.Empty(t, result.Errors)
	conn := result.Data.(map[string]interface{})["allRealtyBoards"].(map[string]interface{})
	assert.Len(t, conn["nodes"], 1)
	assert.Equal(t, true, conn["pageInfo"].(map[string]interface{})["hasNextPage"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConnection_ZeroDefaultLimitReturnsEveryRow(t *testing.T) {
	db := openStore(t)
	for i := 1; i <= 150; i++ {
		insertRow(t, db, "wp_rps_boards", map[string]interface{}{"OrganizationID": i, "ShortName": fmt.Sprintf("B%d", i)})
	}
	schema := newSchema(t, db, Options{DefaultLimit: 0, MaxLimit: 1000})

	result := execute(context.Background(), schema, `{ allRealtyBoards { totalCount nodes { ShortName } pageInfo { hasNextPage } } }`)
	require.Empty(t, result.Errors)
	conn := result.Data.(map[string]interface{})["allRealtyBoards"].(map[string]interface{})
	assert.Equal(t, 150, conn["totalCount"])
	assert.Len(t, conn["nodes"], 150)
	assert.Equal(t, false, conn["pageInfo"].(map[string]interface{})["hasNextPage"])

	result = execute(context.Background(), schema, `{ allRealtyBoards(first: 20) { nodes { ShortName } } }`)
	require.Empty(t, result.Errors)
	assert.Len(t, result.Data.(map[string]interface{})["allRealtyBoards"].(map[string]interface{})["nodes"], 20)
}

func TestConnection_QueryErrorPropagates(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()
	schema := newSchema(t, db, Options{})

	mock.ExpectQuery("SELECT `room_id` FROM `wp_rps_property_rooms`").
		WillReturnError(&mysql.MySQLError{Number: 1142, Message: "SELECT command denied"})

	result := execute(context.Background(), schema, `{ allPropertyRooms { totalCount } }`)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "access denied", result.Errors[0].Message)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNormalizeQueryError(t *testing.T) {
	assert.Nil(t, normalizeQueryError(nil))
	assert.Equal(t, errAccessDenied, normalizeQueryError(&mysql.MySQLError{Number: 1044}))
	assert.Equal(t, errAccessDenied, normalizeQueryError(fmt.Errorf("wrapped: %w", &mysql.MySQLError{Number: 1143})))
	assert.Equal(t, errQueryTimeout, normalizeQueryError(fmt.Errorf("query: %w", context.DeadlineExceeded)))

	other := errors.New("connection refused")
	assert.Equal(t, other, normalizeQueryError(other))
	syntax := &mysql.MySQLError{Number: 1064}
	assert.Equal(t, error(syntax), normalizeQueryError(syntax))
}

func TestBuildDisabledSchema(t *testing.T) {
	schema, err := BuildDisabledSchema("RealtyPress GraphQL couldn't detect RealtyPress.")
	require.NoError(t, err)

	result := execute(context.Background(), schema, `{ _schema }`)
	require.Empty(t, result.Errors)
	assert.Equal(t, "RealtyPress GraphQL couldn't detect RealtyPress.", result.Data.(map[string]interface{})["_schema"])

	assert.Nil(t, schema.Type("Property"))
	result = execute(context.Background(), schema, `{ properties { totalCount } }`)
	assert.NotEmpty(t, result.Errors)
}

func TestChunkValues(t *testing.T) {
	values := []interface{}{1, 2, 3, 4, 5}
	assert.Equal(t, [][]interface{}{{1, 2}, {3, 4}, {5}}, chunkValues(values, 2))
	assert.Equal(t, [][]interface{}{values}, chunkValues(values, 10))
	assert.Equal(t, [][]interface{}{values}, chunkValues(values, 0))
}
