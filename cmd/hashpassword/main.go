// Command hashpassword prints a bcrypt hash for ORGANIZER_PASSWORD_HASH.
//
//	go run ./cmd/hashpassword 'my organizer password'
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/Dosada05/swiss-tournament/utils"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: hashpassword <password>")
		os.Exit(2)
	}

	hash, err := utils.HashPassword(os.Args[1])
	if err != nil {
		slog.Error("failed to hash password", slog.Any("error", err))
		os.Exit(1)
	}
	fmt.Println(hash)
}
