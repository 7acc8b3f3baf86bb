package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/fatgtr/vivid-building-management-systems-sub006/internal/auth"
	"github.com/fatgtr/vivid-building-management-systems-sub006/internal/db"
	"github.com/fatgtr/vivid-building-management-systems-sub006/internal/models"
	"github.com/spf13/cobra"
)

var errUserExists = errors.New("user already exists")

var (
	seedEmail    string
	seedPassword string
	seedName     string
)

var seedAdminCmd = &cobra.Command{
	Use:   "seed-admin",
	Short: "Create the first administrator account",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer closeApp(a)

		id, err := seedAdmin(cmd.Context(), a.Store.Users, a.Auth, seedEmail, seedPassword, seedName)
		if err != nil {
			return err
		}
		logger.WithField("user_id", id).Info("administrator created")
		return nil
	},
}

func init() {
	seedAdminCmd.Flags().StringVar(&seedEmail, "email", "", "administrator email")
	seedAdminCmd.Flags().StringVar(&seedPassword, "password", "", "administrator password")
	seedAdminCmd.Flags().StringVar(&seedName, "name", "Administrator", "administrator full name")
	_ = seedAdminCmd.MarkFlagRequired("email")
	_ = seedAdminCmd.MarkFlagRequired("password")
}

func seedAdmin(ctx context.Context, users db.UserCollection, authService *auth.Service, email, password, name string) (string, error) {
	if err := authService.ValidateEmail(email); err != nil {
		return "", err
	}
	if err := authService.ValidatePassword(password); err != nil {
		return "", err
	}

	if _, err := users.FindUserByEmail(ctx, email); err == nil {
		return "", fmt.Errorf("%w: %s", errUserExists, email)
	} else if !errors.Is(err, db.ErrNotFound) {
		return "", fmt.Errorf("look up user: %w", err)
	}

	hash, err := authService.HashPassword(password)
	if err != nil {
		return "", err
	}
	return users.InsertUser(ctx, models.User{
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		FullName:     name,
	})
}
