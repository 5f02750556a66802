// Command mint-token prints a bearer token for the chat API when JWT_SECRET is set.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/raushankrgupta/shopbot/config"
	"github.com/raushankrgupta/shopbot/utils"
)

func main() {
	config.LoadConfig()

	subject := flag.String("sub", "local-user", "token subject, recorded as the chat user id")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	token, err := utils.GenerateToken(config.JWTSecret, *subject, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
