// Command snippetctl administers the snippet sharing site's database:
// user accounts, snippets and comments.
package main

import "github.com/sakif/snippetshare/internal/cli"

func main() {
	cli.Execute()
}
