// Command admin-passphrase prints the bcrypt hash to set as
// ADMIN_PASSPHRASE_HASH. The passphrase is read from stdin.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/viralforge/mesh/services/monetization/M60-stream-access-service/internal/adapters/security"
)

func main() {
	cost := flag.Int("cost", 12, "bcrypt cost")
	flag.Parse()

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		log.Fatalf("read passphrase: %v", err)
	}
	hash, err := security.NewBcryptPassphrase(*cost).Hash(strings.TrimRight(line, "\r\n"))
	if err != nil {
		log.Fatalf("hash passphrase: %v", err)
	}
	fmt.Println(hash)
}
