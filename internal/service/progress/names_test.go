package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ignite/reachpoint/internal/domain"
)

func TestPickName(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"string is trimmed", "  Ana Diaz ", "Ana Diaz"},
		{"full_name first", domain.Record{"full_name": "A", "fullName": "B"}, "A"},
		{"fullName next", domain.Record{"fullName": " B "}, "B"},
		{"starred column", domain.Record{"Full Name*": "C"}, "C"},
		{"first and last", domain.Record{"first_name": " Ana ", "last_name": "Diaz"}, "Ana Diaz"},
		{"only last", domain.Record{"last_name": "Diaz"}, "Diaz"},
		{"present blank full_name wins", domain.Record{"full_name": "", "first_name": "Ana"}, ""},
		{"null full_name falls through", domain.Record{"full_name": nil, "fullName": "B"}, "B"},
		{"plain map", map[string]any{"full_name": "M"}, "M"},
		{"number", 42.0, "42"},
		{"zero is blank", 0.0, ""},
		{"empty record", domain.Record{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PickName(tt.in))
		})
	}
}

func TestResolveName(t *testing.T) {
	assert.Equal(t, "", ResolveName(nil, "x"))
	assert.Equal(t, "Ana", ResolveName(ResolverFunc(func(id string) any { return " Ana " }), "x"))
	assert.Equal(t, "Bo Li", ResolveName(RecordResolver{"x": {"first_name": "Bo", "last_name": "Li"}}, "x"))
	assert.Equal(t, "", ResolveName(RecordResolver{}, "x"))
	assert.Equal(t, "Cy", ResolveName(NameResolver{"x": "Cy"}, "x"))
}

func TestFullName(t *testing.T) {
	tests := []struct {
		name string
		in   domain.Record
		want string
	}{
		{"nil", nil, ""},
		{"blank full_name skipped", domain.Record{"full_name": "  ", "fullName": "Bo"}, "Bo"},
		{"first/last", domain.Record{"first_name": "Ana", "last_name": "Diaz"}, "Ana Diaz"},
		{"camel case parts", domain.Record{"FirstName": "Cy", "LastName": "Ng"}, "Cy Ng"},
		{"spaced parts", domain.Record{"First Name": "Di", "Last Name": "Ox"}, "Di Ox"},
		{"name", domain.Record{"name": "Ed"}, "Ed"},
		{"Full Name last", domain.Record{"Full Name": "Flo"}, "Flo"},
		{"nothing", domain.Record{"email": "x@y.z"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FullName(tt.in))
		})
	}
}

func TestPickPhone(t *testing.T) {
	assert.Equal(t, "555-0100", PickPhone(domain.Record{"Mobile Phone*": " 555-0100 ", "phone": "x"}))
	assert.Equal(t, "555-0101", PickPhone(domain.Record{"Mobile Phone*": "", "Mobile Number*": "555-0101"}))
	assert.Equal(t, "5550102", PickPhone(domain.Record{"mobile": 5550102.0}))
	assert.Equal(t, "", PickPhone(domain.Record{}))
	assert.Equal(t, "", PickPhone(nil))
}

func TestSortByNameIgnoresCase(t *testing.T) {
	rows := []NotCalledEntry{
		{ContactID: "1", FullName: "bravo"},
		{ContactID: "2", FullName: "Alpha"},
		{ContactID: "3", FullName: "alpha"},
		{ContactID: "4", FullName: "Charlie"},
	}
	sortByName(rows)
	ids := []string{rows[0].ContactID, rows[1].ContactID, rows[2].ContactID, rows[3].ContactID}
	assert.Equal(t, []string{"2", "3", "1", "4"}, ids)
}
