package models

// All lists every table the reconciliation touches, in migration order.
func All() []interface{} {
	return []interface{}{
		&Organization{},
		&Domain{},
		&Ownership{},
		&DMARCSummary{},
		&DomainToDMARCSummary{},
	}
}
