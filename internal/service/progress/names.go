package progress

import (
	"math"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/ignite/reachpoint/internal/domain"
	"github.com/ignite/reachpoint/internal/segmentation"
)

// Resolver maps a contact id to either a display name (string) or a
// dataset record. A nil result resolves to an empty name.
type Resolver interface {
	Resolve(contactID string) any
}

// ResolverFunc adapts a function to a Resolver.
type ResolverFunc func(contactID string) any

func (f ResolverFunc) Resolve(contactID string) any { return f(contactID) }

// RecordResolver resolves ids against an index of dataset rows.
type RecordResolver map[string]domain.Record

func (m RecordResolver) Resolve(contactID string) any {
	if r, ok := m[contactID]; ok {
		return r
	}
	return nil
}

// NameResolver resolves ids against plain display names.
type NameResolver map[string]string

func (m NameResolver) Resolve(contactID string) any {
	if n, ok := m[contactID]; ok {
		return n
	}
	return nil
}

// ResolveName returns the display name r gives for contactID.
func ResolveName(r Resolver, contactID string) string {
	if r == nil {
		return ""
	}
	return PickName(r.Resolve(contactID))
}

// nameSource extracts one candidate name from a record. ok is false when the
// source does not apply, so the next one is tried.
type nameSource func(r domain.Record) (name any, ok bool)

// field is present when the key holds a non-nil value.
func field(key string) nameSource {
	return func(r domain.Record) (any, bool) {
		v, ok := r[key]
		return v, ok && v != nil
	}
}

// fieldText yields the trimmed text of a key when it is truthy.
func fieldText(key string) nameSource {
	return func(r domain.Record) (any, bool) {
		s := truthyText(r[key])
		return s, s != ""
	}
}

// pair joins two name parts with a space.
func pair(firstKey, lastKey string) nameSource {
	return func(r domain.Record) (any, bool) {
		s := strings.TrimSpace(truthyText(r[firstKey]) + " " + truthyText(r[lastKey]))
		return s, s != ""
	}
}

// pickNameSources is the lookup order for contact records handed to a
// Resolver. The first present key wins even if its value is blank.
var pickNameSources = []nameSource{
	field("full_name"),
	field("fullName"),
	field("Full Name*"),
	func(r domain.Record) (any, bool) {
		s := strings.TrimSpace(truthyText(r["first_name"]) + " " + truthyText(r["last_name"]))
		return s, true
	},
}

// fullNameSources is the lookup order for the full report: the first
// non-blank candidate wins.
var fullNameSources = []nameSource{
	fieldText("full_name"),
	fieldText("fullName"),
	fieldText("Full Name*"),
	pair("first_name", "last_name"),
	pair("FirstName", "LastName"),
	pair("First Name", "Last Name"),
	fieldText("name"),
	fieldText("Full Name"),
}

// phoneSources is the lookup order for a contact's phone number.
var phoneSources = []nameSource{
	fieldText("Mobile Phone*"),
	fieldText("Mobile Number*"),
	fieldText("phone"),
	fieldText("phone_number"),
	fieldText("mobile"),
}

func first(r domain.Record, sources []nameSource) any {
	for _, src := range sources {
		if v, ok := src(r); ok {
			return v
		}
	}
	return nil
}

// PickName turns a resolver result into a display name: strings are
// trimmed; records use full_name, fullName, "Full Name*", then
// "first_name last_name".
func PickName(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case domain.Record:
		return truthyText(first(t, pickNameSources))
	case map[string]any:
		return truthyText(first(domain.Record(t), pickNameSources))
	default:
		return truthyText(t)
	}
}

// FullName derives the name shown in the full report, trying several
// spellings used by different datasets. Blank candidates are skipped.
func FullName(r domain.Record) string {
	if r == nil {
		return ""
	}
	v, _ := first(r, fullNameSources).(string)
	return v
}

// PickPhone returns the first non-blank phone field of a record.
func PickPhone(r domain.Record) string {
	if r == nil {
		return ""
	}
	v, _ := first(r, phoneSources).(string)
	return v
}

// truthyText renders v as trimmed text, treating falsy values (nil, "", 0,
// false, NaN) as empty.
func truthyText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case bool:
		if !t {
			return ""
		}
	case float64:
		if t == 0 || math.IsNaN(t) {
			return ""
		}
	case int:
		if t == 0 {
			return ""
		}
	}
	return strings.TrimSpace(segmentation.ToString(v))
}

// sortByName orders entries by name, ignoring case, keeping queue order
// among equal names.
func sortByName(rows []NotCalledEntry) {
	c := collate.New(language.Und, collate.IgnoreCase)
	sort.SliceStable(rows, func(i, j int) bool {
		return c.CompareString(rows[i].FullName, rows[j].FullName) < 0
	})
}
