package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/huddle/internal/models"
)

// UsersCreate creates a user and prints the API token it authenticates with.
func (r *Runner) UsersCreate(ctx context.Context, cmd *cli.Command) error {
	a, err := r.open()
	if err != nil {
		return err
	}
	defer a.Close()

	user := models.NewUser(0, cmd.String("email"), cmd.String("name"))
	if err := a.users.Create(ctx, user); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	r.logger.Info("user created", "id", user.ID(), "email", user.Email())

	if cmd.Bool("json") {
		return r.writeJSON(map[string]string{
			"id":        user.ID(),
			"email":     user.Email(),
			"name":      user.Name(),
			"api_token": user.APIToken(),
		}, cmd.Bool("pretty"))
	}

	r.writePlain("✓ Created %s <%s>\n", user.Name(), user.Email())
	r.writePlain("ID:        %s\n", user.ID())
	return r.writePlain("API token: %s\n", user.APIToken())
}

// UsersList prints every active user.
func (r *Runner) UsersList(ctx context.Context, cmd *cli.Command) error {
	a, err := r.open()
	if err != nil {
		return err
	}
	defer a.Close()

	users, err := a.users.List(ctx, nil)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(users, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Users (%d)", len(users)))
	for _, u := range users {
		status := "✗"
		if u.CalendarConnected() {
			status = "✓"
		}
		r.writePlain("%s  %-30s %-20s calendar %s\n", u.ID(), u.Email(), u.Name(), status)
	}
	return nil
}

// UsersRotateToken replaces a user's API token.
func (r *Runner) UsersRotateToken(ctx context.Context, cmd *cli.Command) error {
	a, err := r.open()
	if err != nil {
		return err
	}
	defer a.Close()

	user, err := a.owner(ctx, cmd)
	if err != nil {
		return err
	}

	token, err := a.users.RotateAPIToken(ctx, user)
	if err != nil {
		return err
	}
	return r.writePlain("API token: %s\n", token)
}
