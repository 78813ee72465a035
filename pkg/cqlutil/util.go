package cqlutil

import (
	"time"

	"github.com/gocql/gocql"
	"github.com/scylladb/gocqlx/v2"
	"github.com/scylladb/gocqlx/v2/qb"
	"github.com/scylladb/gocqlx/v2/table"
)

// CreateCluster prepares a cluster config for connecting to scylla db.
func CreateCluster(keyspace string, addr ...string) *gocql.ClusterConfig {
	cluster := gocql.NewCluster(addr...)
	cluster.Keyspace = keyspace
	cluster.Consistency = gocql.Quorum
	cluster.Timeout = 5 * time.Second
	cluster.RetryPolicy = &gocql.ExponentialBackoffRetryPolicy{
		Min:        time.Second,
		Max:        10 * time.Second,
		NumRetries: 5,
	}
	cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(gocql.RoundRobinHostPolicy())

	return cluster
}

func Insert(session gocqlx.Session, tbl *table.Table, data any) error {
	stmt, names := tbl.Insert()
	return gocqlx.Session.Query(session, stmt, names).BindStruct(data).ExecRelease()
}

func Delete(session gocqlx.Session, tbl *table.Table, data any) error {
	stmt, names := tbl.Delete()
	return gocqlx.Session.Query(session, stmt, names).BindStruct(data).ExecRelease()
}

func Update(session gocqlx.Session, tbl *table.Table, data any) error {
	stmt, names := tbl.Update()
	return gocqlx.Session.Query(session, stmt, names).BindStruct(data).ExecRelease()
}

func Select[T any](
	session gocqlx.Session, tbl *table.Table, filter T, limit int64, w ...qb.Cmp,
) ([]T, error) {
	var result []T
	metadata := tbl.Metadata()

	stmt, names := qb.Select(metadata.Name).
		Columns(metadata.Columns...).
		Where(w...).
		Limit(uint(limit)).
		ToCql()
	err := gocqlx.Session.Query(session, stmt, names).BindStruct(filter).SelectRelease(&result)
	if err != nil {
		return nil, err
	}

	return result, nil
}
