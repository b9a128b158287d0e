package models

// All returns every persisted model in migration order.
func All() []interface{} {
	return []interface{}{
		&Account{},
		&Application{},
		&AdminActivity{},
		&Announcement{},
		&Notification{},
		&SystemSetting{},
	}
}
