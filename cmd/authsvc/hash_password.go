package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/layer-3/authsvc/adapters/hasher"
	"github.com/layer-3/authsvc/core"
	"github.com/spf13/cobra"
)

func hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print the argon2id hash of a password",
		Long: `Print the argon2id PHC hash of a password, for seeding the users
table by hand. The password is read from stdin when not given as an
argument.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := passwordInput(cmd, args)
			if err != nil {
				return err
			}

			password, err := core.ParsePassword(raw)
			if err != nil {
				return err
			}

			h, err := hasher.NewArgon2(hasher.DefaultConfig())
			if err != nil {
				return err
			}
			hash, err := h.Hash(password)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func passwordInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return "", errors.New("empty password")
	}
	return line, nil
}
