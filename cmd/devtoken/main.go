// Command devtoken prints a signed bearer token for local testing.
//
//	devtoken -user <uuid> -role aluno -ttl 24h
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"codemaster/config"
	"codemaster/middleware"
	"codemaster/models"

	"github.com/google/uuid"
)

func main() {
	user := flag.String("user", "", "user id (random when empty)")
	role := flag.String("role", models.RoleStudent, "role claim")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	id := uuid.New()
	if *user != "" {
		if id, err = uuid.Parse(*user); err != nil {
			fmt.Fprintln(os.Stderr, "invalid -user:", err)
			os.Exit(1)
		}
	}

	token, err := middleware.SignToken(cfg.JWTSecret, id, *role, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(token)
}
