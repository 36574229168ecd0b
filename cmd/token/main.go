// Command token mints a signed JWT for local testing against the API.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"

	"libraryapi/config"
	"libraryapi/model"
	"libraryapi/util/jwt"
)

func main() {
	id := flag.Int64("id", 1, "user id (sub claim)")
	email := flag.String("email", "dev@example.com", "email claim")
	role := flag.String("role", "member", "member or staff")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	_ = godotenv.Load()
	secret, err := config.JWTSecret()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	tok, err := jwt.Issue(secret, *id, *email, model.ParseRole(*role), *ttl)
	if err != nil {
		log.Fatalf("sign token: %v", err)
	}
	fmt.Println(tok)
}
