package main

import (
	"context"

	"github.com/shulehub/shule/core"
	"github.com/shulehub/shule/core/user"
)

// addAdmin creates an admin account with the given credentials.
func (cli *commandLine) addAdmin(email, pwd string) error {
	ctx := context.Background()
	data := user.NewUser{
		Name:            "Administrator",
		Email:           core.CleanString(email, true /* lower */),
		Password:        pwd,
		PasswordConfirm: pwd,
		Role:            user.RoleAdmin,
	}
	if err := cli.usrSvc.CheckEmailUniqueness(ctx, data.Email); err != nil {
		return err
	}
	if err := user.CheckPasswordPolicy(pwd, user.User{Name: data.Name, Email: data.Email}); err != nil {
		return err
	}
	_, err := cli.usrSvc.Create(ctx, data)
	return err
}
