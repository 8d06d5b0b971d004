package relationship

import (
	"testing"

	"github.com/jetdb/jetdb/column"
	"github.com/jetdb/jetdb/iface"
	"github.com/jetdb/jetdb/index"
	"github.com/jetdb/jetdb/schema"
	"github.com/jetdb/jetdb/table"
	"github.com/stretchr/testify/require"
)

// newTestTables builds a People(ID pk)/Orders(ID pk, PeopleID fk) pair, each
// with its own engine and primary-key index, mirroring table/engine_test.go's
// single-table helper.
func newTestTables(t *testing.T) (people, orders *table.Engine) {
	t.Helper()

	peopleTbl := schema.NewTable("People")
	require.NoError(t, peopleTbl.AddColumn(schema.NewColumn("ID", column.Spec{Type: column.TypeLong}, false)))
	peopleID, _ := peopleTbl.Column("ID")
	peopleID.IsAutonumber = true
	peopleID.Validator = schema.Identity
	require.NoError(t, peopleTbl.AddColumn(schema.NewColumn("Name", column.Spec{Type: column.TypeText, TextCompressed: true}, true)))

	peopleChannel := iface.NewMemPageChannel(512)
	people = table.NewEngine(peopleTbl, table.LegacyFormat, peopleChannel, iface.IdentityEvaluator{}, iface.NewMemUsageMap(), 0)
	people.Format.PageSize = 512
	people.SetAutonumberGenerator("ID", table.NewLongGenerator(false))
	peopleTree, err := index.NewTree(peopleChannel, true)
	require.NoError(t, err)
	people.Indexes = append(people.Indexes, &table.IndexSpec{
		Name: "PrimaryKey", Tree: peopleTree,
		Columns: []*schema.Column{peopleID}, Ascending: []bool{true}, Unique: true,
	})

	ordersTbl := schema.NewTable("Orders")
	require.NoError(t, ordersTbl.AddColumn(schema.NewColumn("ID", column.Spec{Type: column.TypeLong}, false)))
	ordersID, _ := ordersTbl.Column("ID")
	ordersID.IsAutonumber = true
	ordersID.Validator = schema.Identity
	require.NoError(t, ordersTbl.AddColumn(schema.NewColumn("PeopleID", column.Spec{Type: column.TypeLong}, true)))

	ordersChannel := iface.NewMemPageChannel(512)
	orders = table.NewEngine(ordersTbl, table.LegacyFormat, ordersChannel, iface.IdentityEvaluator{}, iface.NewMemUsageMap(), 0)
	orders.Format.PageSize = 512
	orders.SetAutonumberGenerator("ID", table.NewLongGenerator(false))
	ordersTree, err := index.NewTree(ordersChannel, false)
	require.NoError(t, err)
	ordersID2, _ := ordersTbl.Column("ID")
	orders.Indexes = append(orders.Indexes, &table.IndexSpec{
		Name: "PrimaryKey", Tree: ordersTree,
		Columns: []*schema.Column{ordersID2}, Ascending: []bool{true}, Unique: false,
	})

	return people, orders
}

func TestCreateRejectsOrphanRowsAlreadyPresent(t *testing.T) {
	people, orders := newTestTables(t)
	_, err := people.AddRows([]map[string]any{{"Name": "Ada"}})
	require.NoError(t, err)
	_, err = orders.AddRows([]map[string]any{{"PeopleID": int64(99)}})
	require.NoError(t, err)

	reg := NewRegistry()
	_, err = reg.Create("PeopleOrders", people, []string{"ID"}, orders, []string{"PeopleID"},
		Options{Enforce: true})
	require.Error(t, err)
}

func TestCreateAllowsAllNullChildren(t *testing.T) {
	people, orders := newTestTables(t)
	_, err := orders.AddRows([]map[string]any{{}})
	require.NoError(t, err)

	reg := NewRegistry()
	_, err = reg.Create("PeopleOrders", people, []string{"ID"}, orders, []string{"PeopleID"},
		Options{Enforce: true})
	require.NoError(t, err)
}

func TestAddChildRejectsMissingParent(t *testing.T) {
	people, orders := newTestTables(t)
	reg := NewRegistry()
	_, err := reg.Create("PeopleOrders", people, []string{"ID"}, orders, []string{"PeopleID"},
		Options{Enforce: true})
	require.NoError(t, err)
	orders.FKs = reg

	_, err = orders.AddRows([]map[string]any{{"PeopleID": int64(5)}})
	require.Error(t, err)
}

func TestAddChildAcceptsExistingParent(t *testing.T) {
	people, orders := newTestTables(t)
	ids, err := people.AddRows([]map[string]any{{"Name": "Ada"}})
	require.NoError(t, err)

	reg := NewRegistry()
	_, err = reg.Create("PeopleOrders", people, []string{"ID"}, orders, []string{"PeopleID"},
		Options{Enforce: true})
	require.NoError(t, err)
	orders.FKs = reg

	personID, err := people.ReadRow(ids[0])
	require.NoError(t, err)
	_, err = orders.AddRows([]map[string]any{{"PeopleID": personID["ID"]}})
	require.NoError(t, err)
}

func TestDeleteParentRejectsWithExistingChildren(t *testing.T) {
	people, orders := newTestTables(t)
	pids, err := people.AddRows([]map[string]any{{"Name": "Ada"}})
	require.NoError(t, err)

	reg := NewRegistry()
	_, err = reg.Create("PeopleOrders", people, []string{"ID"}, orders, []string{"PeopleID"},
		Options{Enforce: true})
	require.NoError(t, err)
	people.FKs = reg
	orders.FKs = reg

	person, err := people.ReadRow(pids[0])
	require.NoError(t, err)
	_, err = orders.AddRows([]map[string]any{{"PeopleID": person["ID"]}})
	require.NoError(t, err)

	err = people.DeleteRow(pids[0])
	require.Error(t, err)
}

func TestDeleteParentCascadeDeletesChildren(t *testing.T) {
	people, orders := newTestTables(t)
	pids, err := people.AddRows([]map[string]any{{"Name": "Ada"}})
	require.NoError(t, err)

	reg := NewRegistry()
	_, err = reg.Create("PeopleOrders", people, []string{"ID"}, orders, []string{"PeopleID"},
		Options{Enforce: true, CascadeDelete: true})
	require.NoError(t, err)
	people.FKs = reg
	orders.FKs = reg

	person, err := people.ReadRow(pids[0])
	require.NoError(t, err)
	oids, err := orders.AddRows([]map[string]any{{"PeopleID": person["ID"]}})
	require.NoError(t, err)

	require.NoError(t, people.DeleteRow(pids[0]))

	_, err = orders.ReadRow(oids[0])
	require.Error(t, err)
}

func TestDeleteParentCascadeNullsChildren(t *testing.T) {
	people, orders := newTestTables(t)
	pids, err := people.AddRows([]map[string]any{{"Name": "Ada"}})
	require.NoError(t, err)

	reg := NewRegistry()
	_, err = reg.Create("PeopleOrders", people, []string{"ID"}, orders, []string{"PeopleID"},
		Options{Enforce: true, CascadeNull: true})
	require.NoError(t, err)
	people.FKs = reg
	orders.FKs = reg

	person, err := people.ReadRow(pids[0])
	require.NoError(t, err)
	oids, err := orders.AddRows([]map[string]any{{"PeopleID": person["ID"]}})
	require.NoError(t, err)

	require.NoError(t, people.DeleteRow(pids[0]))

	got, err := orders.ReadRow(oids[0])
	require.NoError(t, err)
	require.Nil(t, got["PeopleID"])
}

func TestCreateRequiresUniqueIndexOnPrimarySide(t *testing.T) {
	people, orders := newTestTables(t)
	// Drop the People primary-key index so no unique index covers ID.
	people.Indexes = nil

	reg := NewRegistry()
	_, err := reg.Create("PeopleOrders", people, []string{"ID"}, orders, []string{"PeopleID"},
		Options{Enforce: true})
	require.Error(t, err)
}

func TestPrimaryIndexNamingSequence(t *testing.T) {
	people, orders := newTestTables(t)
	reg := NewRegistry()

	rel1, err := reg.Create("Rel1", people, []string{"ID"}, orders, []string{"PeopleID"}, Options{})
	require.NoError(t, err)
	require.Equal(t, ".rB", reg.relationships[0].primaryIndex.Name)

	people2, orders2 := newTestTables(t)
	rel2, err := reg.Create("Rel2", people2, []string{"ID"}, orders2, []string{"PeopleID"}, Options{})
	require.NoError(t, err)
	require.Equal(t, ".rC", reg.relationships[1].primaryIndex.Name)

	require.NotEqual(t, rel1.primaryIndex.Name, rel2.primaryIndex.Name)
}
