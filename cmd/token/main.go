// Command token issues a bearer token for local testing.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/Domenick1991/railbooking/config"
	"github.com/Domenick1991/railbooking/internal/auth"
)

func main() {
	travelerID := flag.Int64("traveler", 0, "traveler id carried in the token")
	email := flag.String("email", "", "email carried in the token")
	role := flag.String("role", string(auth.RolePassenger), "Passenger, Staff or Admin")
	flag.Parse()

	_ = godotenv.Load()
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	if !cfg.Auth.Enabled() {
		logrus.Fatal("auth.jwt_secret is not set")
	}

	r := auth.Role(*role)
	switch r {
	case auth.RolePassenger, auth.RoleStaff, auth.RoleAdmin:
	default:
		logrus.Fatalf("unknown role %q", *role)
	}

	token, err := auth.NewManager(cfg.Auth).Issue(*travelerID, *email, r)
	if err != nil {
		logrus.WithError(err).Fatal("issue token")
	}
	fmt.Println(token)
}
