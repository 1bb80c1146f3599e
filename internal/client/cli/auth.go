package cli

import (
	"context"

	"github.com/dmitrijs2005/quickcollab/internal/common"
)

// getSimpleText, getPassword and getMultiline are indirections used to
// facilitate testing. They point to interactive input helpers and can be
// swapped in tests.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
	getMultiline  = GetMultiline
)

// Register prompts for a display name, an email and a password and creates
// the account. A successful registration logs the user in.
//
// The password byte slice is wiped before returning.
func (a *App) Register(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter name", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	sess, err := a.session.Register(ctx, name, email, string(password))
	if err != nil {
		return err
	}

	printlnFn("Welcome,", sess.User.Name+"!")
	return nil
}

// Login prompts for credentials and opens a session. The realtime channel
// comes up through the session subscription.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	sess, err := a.session.Login(ctx, email, string(password))
	if err != nil {
		return err
	}

	printlnFn("Logged in as", sess.User.Email)
	return nil
}

// Logout ends the session. Board state and the realtime channel are torn
// down through the session subscription.
func (a *App) Logout(ctx context.Context) error {
	if err := a.session.Logout(ctx); err != nil {
		return err
	}
	printlnFn("Logged out")
	return nil
}
