package segmentation

import (
	"sort"
	"strconv"

	"github.com/ignite/reachpoint/internal/domain"
)

// Apply returns the rows that satisfy every rule, in input order. With no
// rules it returns a shallow copy of rows.
func Apply(rows []domain.Record, filters []domain.FilterRule) []domain.Record {
	if len(filters) == 0 {
		out := make([]domain.Record, len(rows))
		copy(out, rows)
		return out
	}

	out := make([]domain.Record, 0, len(rows))
	for _, row := range rows {
		if Match(row, filters) {
			out = append(out, row)
		}
	}
	return out
}

// Match reports whether a single row satisfies every rule.
func Match(row domain.Record, filters []domain.FilterRule) bool {
	for _, f := range filters {
		var value any
		if row != nil {
			value = row[f.Field]
		}
		if !comparatorFor(f.Op)(value, f.Value) {
			return false
		}
	}
	return true
}

// ContactID derives the identifier of a row at position index of a filtered
// list: the first present of id, student_id and uuid, otherwise
// "<first_name>-<last_name>-<index>".
func ContactID(row domain.Record, index int) string {
	for _, key := range []string{"id", "student_id", "uuid"} {
		if v, ok := row[key]; ok && v != nil {
			return ToString(v)
		}
	}
	return ToString(row["first_name"]) + "-" + ToString(row["last_name"]) + "-" + strconv.Itoa(index)
}

// Queue applies filters and derives the ordered contact ids of the result.
func Queue(rows []domain.Record, filters []domain.FilterRule) ([]domain.Record, []string) {
	matched := Apply(rows, filters)
	ids := make([]string, len(matched))
	for i, row := range matched {
		ids[i] = ContactID(row, i)
	}
	return matched, ids
}

// Index maps each contact id of the filtered rows to its row.
func Index(rows []domain.Record, filters []domain.FilterRule) map[string]domain.Record {
	matched, ids := Queue(rows, filters)
	idx := make(map[string]domain.Record, len(ids))
	for i, id := range ids {
		idx[id] = matched[i]
	}
	return idx
}

// Fields returns the sorted union of keys across rows, for building filter
// pickers.
func Fields(rows []domain.Record) []string {
	seen := make(map[string]struct{})
	for _, row := range rows {
		for k := range row {
			seen[k] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Values returns the distinct non-empty display values of one field, sorted.
func Values(rows []domain.Record, field string) []string {
	seen := make(map[string]struct{})
	for _, row := range rows {
		s := ToString(row[field])
		if s == "" {
			continue
		}
		seen[s] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
