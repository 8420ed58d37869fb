// askdb-validate runs SQL statements through the firewall without touching a
// database. Statements come from command line arguments or, with no
// arguments, one per line on stdin. Exit code is 1 when any statement is
// rejected.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"github.com/askdb/askdb/internal/security"
)

func main() {
	showSafe := flag.Bool("sanitized", false, "print the sanitized form of accepted statements")
	flag.Parse()

	statements := flag.Args()
	if len(statements) == 0 {
		scanner := bufio.NewScanner(os.Stdin)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			statements = append(statements, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			fmt.Fprintf(os.Stderr, "read stdin: %v\n", err)
			os.Exit(2)
		}
	}

	rejected := 0
	for _, statement := range statements {
		verdict := security.Validate(statement)
		if verdict.IsValid {
			if *showSafe {
				fmt.Printf("ACCEPT\t%s\n", security.Sanitize(statement))
			} else {
				fmt.Printf("ACCEPT\t%s\n", statement)
			}
			continue
		}
		rejected++
		fmt.Printf("REJECT\t%s\t%s\n", verdict.BlockedReason, statement)
	}

	fmt.Fprintf(os.Stderr, "%d statements, %d rejected\n", len(statements), rejected)
	if rejected > 0 {
		os.Exit(1)
	}
}
