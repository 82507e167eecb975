package model

// All returns every persisted model for migration.
func All() []interface{} {
	return []interface{}{
		&Tenant{},
		&User{},
		&AccessIdentity{},
		&Client{},
		&Property{},
		&Job{},
		&Equipment{},
		&Note{},
		&JobEvent{},
		&JobSearchIndex{},
	}
}
