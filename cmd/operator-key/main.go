// Command operator-key prints the bcrypt hash of an operator key read from stdin,
// ready to be placed into OPERATOR_KEY_HASH.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/polkiloo/storefront/internal/pkg/auth"
)

func main() {
	cost := flag.Int("cost", 0, "bcrypt cost, zero selects the default")
	flag.Parse()

	key, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && key == "" {
		fmt.Fprintf(os.Stderr, "read operator key: %v\n", err)
		os.Exit(1)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		fmt.Fprintln(os.Stderr, "operator key must not be empty")
		os.Exit(1)
	}

	hash, err := auth.NewBcryptHasher(*cost).Hash(key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hash operator key: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
