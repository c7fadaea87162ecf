package aggregates

// WriteTxOwnership defines who owns write transaction boundaries.
type WriteTxOwnership string

const (
	// WriteTxOwnedByAggregate means the aggregate opens and commits its own transaction.
	WriteTxOwnedByAggregate WriteTxOwnership = "aggregate_owned"
)

// ReadPolicy defines which reads an aggregate performs.
type ReadPolicy string

const (
	// ReadPolicyInvariantScoped limits aggregate reads to state needed for invariant checks.
	ReadPolicyInvariantScoped ReadPolicy = "invariant_scoped_reads"
	// ReadPolicyTableRepoQueries leaves list/report queries to table repos.
	ReadPolicyTableRepoQueries ReadPolicy = "table_repo_queries"
)

// Contract describes an aggregate's transactional policy.
type Contract struct {
	Name             string
	WriteTxOwnership WriteTxOwnership
	ReadPolicy       ReadPolicy
	Notes            string
}

// Aggregate is implemented by every aggregate.
type Aggregate interface {
	Contract() Contract
}

func (c Contract) RequiresAggregateOwnedTx() bool {
	return c.WriteTxOwnership == WriteTxOwnedByAggregate
}
