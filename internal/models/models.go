package models

// All 按迁移顺序返回所有模型
func All() []interface{} {
	return []interface{}{
		&Permission{},
		&Role{},
		&User{},
		&AccessToken{},
		&PasswordReset{},
		&Category{},
		&Tag{},
		&Post{},
	}
}
