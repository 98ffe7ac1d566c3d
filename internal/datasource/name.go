// Package datasource wires the logical databases of the service: one pool,
// one transaction scope and one set of owned tables per database.
package datasource

import (
	"errors"
	"fmt"
	"slices"
)

// Name identifies a logical database. The zero value is the default database.
type Name int

const (
	// Primary is the default database holding samples.
	Primary Name = iota
	// GPDB1 is the first Greenplum analytics database.
	GPDB1
	// GPDB2 is the second Greenplum analytics database.
	GPDB2
)

// Tables owned by the logical databases.
const (
	TableSamples       = "samples"
	TableAnalyticsData = "analytics_data"
)

var (
	// ErrUnknownDatabase is returned for a name outside the declared set.
	ErrUnknownDatabase = errors.New("unknown logical database")
	// ErrBindingMismatch is returned when a transaction manager and an adapter target different databases.
	ErrBindingMismatch = errors.New("transaction manager does not match adapter database")
	// ErrTableNotOwned is returned when an adapter manages a table its database does not own.
	ErrTableNotOwned = errors.New("table not owned by database")
)

var ownedTables = map[Name][]string{
	Primary: {TableSamples},
	GPDB1:   {TableAnalyticsData},
	GPDB2:   {TableAnalyticsData},
}

// Names returns every logical database, default first.
func Names() []Name {
	return []Name{Primary, GPDB1, GPDB2}
}

func (n Name) String() string {
	switch n {
	case Primary:
		return "primary"
	case GPDB1:
		return "gpdb1"
	case GPDB2:
		return "gpdb2"
	default:
		return fmt.Sprintf("datasource(%d)", int(n))
	}
}

// ParseName resolves the string form of a logical database name.
func ParseName(s string) (Name, error) {
	for _, n := range Names() {
		if n.String() == s {
			return n, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownDatabase, s)
}

// Owns reports whether the database is declared to manage the table.
func Owns(n Name, table string) bool {
	return slices.Contains(ownedTables[n], table)
}

// Bound is implemented by anything tied to exactly one logical database.
type Bound interface {
	Database() Name
}

// TableBound is a Bound component that manages a single table.
type TableBound interface {
	Bound
	Table() string
}

// CheckBinding asserts at wiring time that the transaction manager and the
// adapter target the same database and that the database owns the adapter's table.
func CheckBinding(tm Bound, adapter TableBound) error {
	if tm.Database() != adapter.Database() {
		return fmt.Errorf("%w: transaction manager %s, adapter %s",
			ErrBindingMismatch, tm.Database(), adapter.Database())
	}

	if !Owns(adapter.Database(), adapter.Table()) {
		return fmt.Errorf("%w: %s does not own %s", ErrTableNotOwned, adapter.Database(), adapter.Table())
	}

	return nil
}
