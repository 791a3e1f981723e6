package main

import (
	"context"
	"fmt"

	"github.com/trezcool/matokeo/core/user"
)

// preRegister allow-lists a teacher so they can complete signup themselves.
func (cli *commandLine) preRegister(name, regNum string) error {
	prt, err := cli.usrSvc.PreRegister(context.Background(), user.NewPreRegistration{
		Name:           name,
		RegisterNumber: regNum,
	})
	if err != nil {
		return err
	}
	fmt.Printf("pre-registered %q (register number %s)\n", prt.Name, prt.RegisterNumber)
	return nil
}
