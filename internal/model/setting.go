package model

import "time"

// Setting 运行时设置项（功能开关等），区别于启动期的 viper 配置
type Setting struct {
	Key       string    `gorm:"primaryKey;type:varchar(64)" json:"key"`
	Value     string    `gorm:"type:varchar(255)" json:"value"`
	Type      string    `gorm:"type:varchar(16);default:'boolean'" json:"type"` // boolean / string / int
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Setting) TableName() string { return "settings" }
