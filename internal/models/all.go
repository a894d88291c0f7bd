package models

// All lists every persisted model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Category{},
		&Tag{},
		&Recipe{},
		&Comment{},
		&OAuthClient{},
		&OAuthToken{},
	}
}
