package entity

type APIKey struct {
	UserID string `gorm:"primaryKey"`
	User   User   `gorm:"foreignKey:UserID"`
	Key    string `gorm:"index"`
}

func (APIKey) TableName() string {
	return "api_keys"
}
