package entity

import "github.com/BillixOfficial/rewards-backend/pkg/enum"

type Bucket string

var (
	ImageBucket = enum.New(Bucket("images"))
)

type File struct {
	Base
	Mime      string
	Name      string
	CreatedBy string `gorm:"not null"`
	User      User   `gorm:"foreignKey:CreatedBy"`
	Url       string
}
