package replica

import (
	"github.com/dhiway/starter-kit/internal/models"
)

const entryColumns = "namespace_id, author_id, key, hash, len, timestamp, checksum"

type scanQueryBuilder struct {
	filter ScanFilter
	query  string
	args   []any
}

func buildScanQuery(id models.DocumentID, filter ScanFilter) (string, []any) {
	builder := &scanQueryBuilder{filter: filter}
	builder.buildSelect(id)
	builder.appendAuthor()
	builder.appendKey()
	builder.appendKeyPrefix()
	builder.appendLive()
	builder.buildOrder()
	return builder.query, builder.args
}

func (b *scanQueryBuilder) buildSelect(id models.DocumentID) {
	b.query = "SELECT " + entryColumns + " FROM entries WHERE namespace_id = ?"
	b.args = append(b.args, id.String())
}

func (b *scanQueryBuilder) appendAuthor() {
	if b.filter.Author == nil {
		return
	}
	b.query += " AND author_id = ?"
	b.args = append(b.args, b.filter.Author.String())
}

func (b *scanQueryBuilder) appendKey() {
	if b.filter.Key == "" {
		return
	}
	b.query += " AND key = ?"
	b.args = append(b.args, b.filter.Key)
}

func (b *scanQueryBuilder) appendKeyPrefix() {
	if b.filter.KeyPrefix == "" {
		return
	}
	// substr avoids LIKE so % and _ in keys stay literal
	b.query += " AND substr(key, 1, length(?)) = ?"
	b.args = append(b.args, b.filter.KeyPrefix, b.filter.KeyPrefix)
}

func (b *scanQueryBuilder) appendLive() {
	if b.filter.IncludeEmpty {
		return
	}
	b.query += " AND empty = 0"
}

func (b *scanQueryBuilder) buildOrder() {
	b.query += " ORDER BY key ASC, author_id ASC"
}
