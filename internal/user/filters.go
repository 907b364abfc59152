package user

import (
	"slices"

	"github.com/lazatu/realty-api/internal/query"
)

// Filters is the registry for the user list endpoint. Unknown keys miss the
// registry and are ignored.
func Filters() query.FilterSet {
	return query.FilterSet{
		"roles":      filterRoles,
		"first_name": filterFirstName,
		"last_name":  filterLastName,
		"mobile":     filterMobile,
		"email":      filterEmail,
	}
}

// filterRoles matches users holding any role whose name contains one of the
// comma-separated terms. The literal "all" drops the name filter but still
// requires some role. The super-admin role (id 1) never matches.
func filterRoles(b *query.Builder, value string) {
	terms := query.CSV(value)

	if slices.Contains(terms, "all") {
		b.Where(`EXISTS (
			SELECT 1 FROM role_user ru WHERE ru.user_id = u.id
		)`)
		return
	}

	patterns := make([]string, 0, len(terms))
	for _, t := range terms {
		patterns = append(patterns, "%"+t+"%")
	}

	b.Where(`EXISTS (
		SELECT 1 FROM role_user ru
		JOIN roles r ON r.id = ru.role_id
		WHERE ru.user_id = u.id
		  AND r.id != 1
		  AND r.name ILIKE ANY(?)
	)`, patterns)
}

func filterFirstName(b *query.Builder, value string) {
	b.Where("u.first_name ILIKE ?", "%"+value+"%")
}

func filterLastName(b *query.Builder, value string) {
	b.OrWhere("u.last_name ILIKE ?", "%"+value+"%")
}

func filterMobile(b *query.Builder, value string) {
	b.OrWhere("u.mobile ILIKE ?", "%"+value+"%")
}

func filterEmail(b *query.Builder, value string) {
	b.OrWhere("u.email ILIKE ?", "%"+value+"%")
}
