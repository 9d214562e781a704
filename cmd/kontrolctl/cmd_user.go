// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sistemakontrol/kontrol/internal/model"
)

var newUser struct {
	username  string
	password  string
	role      string
	firstName string
	lastName  string
	email     string
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage accounts",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an account with any role",
	RunE: func(cmd *cobra.Command, _ []string) error {
		role, err := model.ParseRole(newUser.role)
		if err != nil {
			return err
		}
		password := newUser.password
		if password == "" {
			if password, err = promptPassword(); err != nil {
				return err
			}
		}

		e, err := newEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		u, err := e.services.User.AddUser(cmd.Context(), &model.AddUserReq{
			Username:  newUser.username,
			FirstName: newUser.firstName,
			LastName:  newUser.lastName,
			Email:     newUser.email,
			Password:  password,
			Role:      role,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created %s (id %d, %s)\n", u.Username, u.ID, u.Role)
		return nil
	},
}

var userSetRoleCmd = &cobra.Command{
	Use:   "set-role <username> <role>",
	Short: "Change the role of an account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		role, err := model.ParseRole(args[1])
		if err != nil {
			return err
		}
		e, err := newEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		if err := e.services.User.SetRole(cmd.Context(), args[0], role); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", args[0], role)
		return nil
	},
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete <username>",
	Short: "Delete an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		if err := e.services.User.DeleteUser(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
		return nil
	},
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := newEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		users, err := e.services.User.ListUsers(cmd.Context())
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(users))
		for _, u := range users {
			rows = append(rows, []string{
				strconv.FormatUint(u.ID, 10),
				u.Username,
				u.DisplayName(),
				string(u.Role),
				strconv.FormatBool(u.IsEnabled == 1),
			})
		}
		printTable(cmd, []string{"id", "username", "name", "role", "enabled"}, rows)
		return nil
	},
}

func init() {
	f := userCreateCmd.Flags()
	f.StringVarP(&newUser.username, "username", "u", "", "login name")
	f.StringVarP(&newUser.password, "password", "p", "", "password, prompted when omitted")
	f.StringVarP(&newUser.role, "role", "r", string(model.RoleEngineer), "engineer, manager or customer")
	f.StringVar(&newUser.firstName, "first-name", "", "first name")
	f.StringVar(&newUser.lastName, "last-name", "", "last name")
	f.StringVar(&newUser.email, "email", "", "email address")
	_ = userCreateCmd.MarkFlagRequired("username")

	userCmd.AddCommand(userCreateCmd, userSetRoleCmd, userDeleteCmd, userListCmd)
}

func promptPassword() (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", errors.New("--password is required when stdin is not a terminal")
	}
	fmt.Fprint(os.Stderr, "Password: ")
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(pw), nil
}

