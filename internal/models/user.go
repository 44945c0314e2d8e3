package models

// User status values.
const (
	UserStatusDisabled = 0
	UserStatusEnabled  = 1
)

// User is an account reachable through one or more login channels:
// username+password, mobile (SMS code), or WeChat openid. Mobile and openid
// are unique across users when set.
type User struct {
	Base
	Username string `json:"username" gorm:"size:64;uniqueIndex;not null"`
	Password string `json:"-"        gorm:"size:128"`
	Nickname string `json:"nickname" gorm:"size:64"`
	RealName string `json:"real_name" gorm:"size:64"`
	Email    string `json:"email"    gorm:"size:128"`
	Mobile   string `json:"mobile"   gorm:"size:20;index"`
	Avatar   string `json:"avatar"   gorm:"size:255"`
	Gender   int    `json:"gender"   gorm:"default:0"`
	WxOpenid string `json:"-"        gorm:"size:64;index"`
	Status   int    `json:"status"   gorm:"default:1"`
}

func (User) TableName() string { return "sys_user" }

// Enabled reports whether the account may log in.
func (u *User) Enabled() bool { return u.Status == UserStatusEnabled }
