// Command token mints access tokens for the tracker agent and the admin console.
// Authentication is owned by the identity provider in production; this covers
// local setups and service accounts.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/config"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/jwt"
)

func main() {
	userID := flag.String("user", "", "user id carried in the token")
	employeeID := flag.String("employee", "", "employee id bound to the token (employee role)")
	role := flag.String("role", string(jwt.RoleEmployee), "admin or employee")
	flag.Parse()

	if *userID == "" {
		fmt.Fprintln(os.Stderr, "-user is required")
		os.Exit(2)
	}

	var bound *string
	switch jwt.Role(*role) {
	case jwt.RoleAdmin:
	case jwt.RoleEmployee:
		if *employeeID == "" {
			fmt.Fprintln(os.Stderr, "-employee is required for the employee role")
			os.Exit(2)
		}
		bound = employeeID
	default:
		fmt.Fprintf(os.Stderr, "unknown role %q\n", *role)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error loading config:", err)
		os.Exit(1)
	}

	token, expiresAt, err := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration).GenerateAccessToken(*userID, bound, jwt.Role(*role))
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error generating token:", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "expires at %s\n", time.Unix(expiresAt, 0).UTC().Format(time.RFC3339))
	fmt.Println(token)
}
