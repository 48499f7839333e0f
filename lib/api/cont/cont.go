package cont

import (
	"context"

	"botfleet/entity"
)

type ctxKey string

const UserDataKey ctxKey = "userData"

func PutUser(c context.Context, user *entity.AdminUser) context.Context {
	return context.WithValue(c, UserDataKey, *user)
}

func GetUser(c context.Context) *entity.AdminUser {
	user, ok := c.Value(UserDataKey).(entity.AdminUser)
	if !ok {
		return &entity.AdminUser{}
	}
	return &user
}
