package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/Skotchmaster/book_api/internal/hash"
	"github.com/Skotchmaster/book_api/internal/mykafka"
	"github.com/Skotchmaster/book_api/internal/repo"
	"github.com/Skotchmaster/book_api/internal/service"
)

const minPasswordLen = 8

func newCreateAdminCmd(a *app) *cobra.Command {
	var (
		in      service.RegisterInput
		promote bool
	)

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin user or promote an existing one",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := promptMissing(cmd.InOrStdin(), cmd.OutOrStdout(), &in); err != nil {
				return err
			}
			if in.Email == "" || in.Username == "" || in.Password == "" {
				return errors.New("email, username and password are required")
			}
			if len(in.Password) < minPasswordLen {
				return fmt.Errorf("password must be at least %d characters", minPasswordLen)
			}

			return a.withDB(cmd.Context(), func(db *gorm.DB) error {
				users := &service.UserService{
					Repo:   repo.New(db),
					Hasher: hash.New(a.cfg.BcryptCost),
					Events: mykafka.NopPublisher{},
				}
				user, outcome, err := users.EnsureAdmin(cmd.Context(), in, promote)
				if errors.Is(err, service.ErrConflict) {
					return fmt.Errorf("%w (rerun with --promote to upgrade an existing user)", err)
				}
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				switch outcome {
				case service.AdminCreated:
					fmt.Fprintln(out, "Admin user created.")
				case service.AdminPromoted:
					fmt.Fprintln(out, "User upgraded to admin.")
				default:
					fmt.Fprintln(out, "User is already an admin.")
				}
				fmt.Fprintf(out, "  Email: %s\n  Username: %s\n  UUID: %s\n", user.Email, user.Username, user.UUID)
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVarP(&in.Email, "email", "e", "", "admin email address")
	f.StringVarP(&in.Username, "username", "u", "", "admin username")
	f.StringVarP(&in.Password, "password", "p", "", "admin password (read from stdin when omitted)")
	f.StringVarP(&in.FirstName, "first-name", "f", "Admin", "first name")
	f.StringVarP(&in.LastName, "last-name", "l", "User", "last name")
	f.BoolVar(&promote, "promote", false, "upgrade the user to admin if the email already exists")
	return cmd
}

func promptMissing(r io.Reader, w io.Writer, in *service.RegisterInput) error {
	sc := bufio.NewScanner(r)
	ask := func(label string, dst *string) error {
		if *dst != "" {
			return nil
		}
		fmt.Fprintf(w, "%s: ", label)
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return err
			}
			return nil
		}
		*dst = strings.TrimSpace(sc.Text())
		return nil
	}

	if err := ask("Email", &in.Email); err != nil {
		return err
	}
	if err := ask("Username", &in.Username); err != nil {
		return err
	}
	return ask("Password", &in.Password)
}
