package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gymguard/uiharness/internal/harness"
	"github.com/gymguard/uiharness/internal/page"
	"github.com/gymguard/uiharness/internal/pages"
)

// scenario is one smoke check run through the harness lifecycle
type scenario struct {
	Name        string
	Description string
	// ExpectFailure marks scenarios that demonstrate failure capture
	ExpectFailure bool
	Body          harness.Body
}

type credentials struct {
	Email           string
	Password        string
	InvalidPassword string
}

func scenarios(creds credentials, includeFailure bool) []scenario {
	list := []scenario{
		{
			Name:        "TestValidLogin",
			Description: "valid credentials reach the dashboard",
			Body:        validLogin(creds),
		},
		{
			Name:        "TestInvalidLogin",
			Description: "invalid credentials show an error",
			Body:        invalidLogin(creds),
		},
	}
	if includeFailure {
		list = append(list, scenario{
			Name:          "TestFailureCapture",
			Description:   "a failing test leaves a screenshot",
			ExpectFailure: true,
			Body: func(ctx context.Context, tc *harness.TestCase) error {
				return errors.New("boom")
			},
		})
	}
	return list
}

func validLogin(creds credentials) harness.Body {
	return func(ctx context.Context, tc *harness.TestCase) error {
		login, err := page.Init(tc.Session(), pages.NewLoginPage)
		if err != nil {
			return err
		}
		dashboard, err := login.Login(ctx, creds.Email, creds.Password)
		if err != nil {
			return err
		}
		if err := dashboard.WaitLoaded(ctx); err != nil {
			return fmt.Errorf("dashboard not reached: %w", err)
		}
		return nil
	}
}

func invalidLogin(creds credentials) harness.Body {
	return func(ctx context.Context, tc *harness.TestCase) error {
		login, err := page.Init(tc.Session(), pages.NewLoginPage)
		if err != nil {
			return err
		}
		if _, err := login.Login(ctx, creds.Email, creds.InvalidPassword); err != nil {
			return err
		}
		msg, err := login.ErrorMessage(ctx)
		if err != nil {
			return err
		}
		if !strings.Contains(msg, "Invalid credentials") {
			return fmt.Errorf("unexpected error message %q", msg)
		}
		return nil
	}
}
