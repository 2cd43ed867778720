// Command adminkey prints the bcrypt hash of a publisher key, for the
// server's ADMIN_KEY_HASH.
//
//	go run ./cmd/adminkey --key "$(openssl rand -hex 24)"
//
// Without --key the key is read from the first line of stdin.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/sakif/aurabetz/internal/auth"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "adminkey:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "adminkey",
		Usage: "hash a publisher key for ADMIN_KEY_HASH",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "key", Usage: "publisher key to hash (default: read stdin)"},
			&cli.IntFlag{Name: "cost", Value: auth.DefaultKeyCost, Usage: "bcrypt cost"},
		},
		Action: func(c *cli.Context) error {
			plaintext := c.String("key")
			if plaintext == "" {
				line, err := bufio.NewReader(c.App.Reader).ReadString('\n')
				if err != nil && line == "" {
					return errors.New("no key given")
				}
				plaintext = strings.TrimRight(line, "\r\n")
			}

			hash, err := auth.HashAdminKey(plaintext, c.Int("cost"))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.App.Writer, hash)
			return err
		},
	}
}
