// NewsDaily - a self-hosted news site
// ===================================
//
// COMMANDS:
// - newsdaily serve            run the web server (default)
// - newsdaily seed <file>      fill an empty store from YAML
// - newsdaily import <url>     import an RSS/Atom feed as posts
// - newsdaily stats            site statistics and top posts
// - newsdaily delete-post <id> delete a post and its comments
//
// DEFAULT ADMIN CREDENTIALS:
// - admin / admin123 (override with NEWSDAILY_ADMIN_PASSWORD)

package main

import "newsdaily-web/internal/cli"

func main() {
	cli.Execute()
}
