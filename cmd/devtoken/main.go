// Command devtoken prints an access token accepted by the API, for local
// testing.  It reads JWT_SECRET the same way the server does.
//
//	go run ./cmd/devtoken -user 42
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/iliyamo/movie-reservation/internal/utils"
)

func main() {
	_ = godotenv.Load()

	user := flag.Uint64("user", 1, "user id placed in the sub claim")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		fmt.Fprintln(os.Stderr, "devtoken: JWT_SECRET is not set")
		os.Exit(1)
	}
	if *user == 0 {
		fmt.Fprintln(os.Stderr, "devtoken: -user must be positive")
		os.Exit(1)
	}
	tok, err := utils.NewAccessToken(secret, *user, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, "devtoken:", err)
		os.Exit(1)
	}
	fmt.Println(tok.Token)
	fmt.Fprintf(os.Stderr, "expires %s\n", tok.Exp.Format(time.RFC3339))
}
