package main

import "context"

// addAdmin updates or creates an approved, active admin account.
func (cli *commandLine) addAdmin(name, email, pwd string) error {
	_, err := cli.usrSvc.CreateAdmin(context.Background(), name, email, pwd)
	return err
}
