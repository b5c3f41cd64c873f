package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eringen/inkpost"
)

var flagPassword string

var useraddCmd = &cobra.Command{
	Use:   "useradd <username>",
	Short: "Create a user who can write posts",
	Long: `Create a user who can write posts. The password is taken from
--password, or read as one line from stdin when the flag is absent.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password := flagPassword
		if password == "" {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && !errors.Is(err, io.EOF) {
				return fmt.Errorf("read password: %w", err)
			}
			password = strings.TrimRight(line, "\r\n")
		}
		if password == "" {
			return errors.New("useradd: password is required")
		}

		store, err := inkpost.NewStore(cfg.GetString(cfgKeyDatabase))
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer store.Close()

		user, err := store.CreateUser(cmd.Context(), args[0], password)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created user %s (id %d)\n", user.Username, user.ID)
		return nil
	},
}

func init() {
	useraddCmd.Flags().StringVar(&flagPassword, "password", "", "password for the new user")
}
