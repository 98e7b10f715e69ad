// Package config parses the command line into the server's runtime
// configuration, the Go equivalent of original_source/src/mainloop.c's
// parse_cmd/cmd_get_port/struct runtime_conf.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
)

const (
	defaultPort    = 8081
	defaultWebRoot = "./www"
)

// Config is the server's read-only runtime configuration, whose fields are
// handed to the reactor once at startup (original_source used a file-scope
// `webroot` global touched from multiple translation units; this repo
// threads Config explicitly instead — spec.md §9's config-passing note).
type Config struct {
	Port    int
	WebRoot string
}

// Load parses args (typically os.Args[1:]) into a Config. Port defaults to
// 8081 and falls back to it silently on anything unparsable or outside
// (0, 65535], matching cmd_get_port exactly. WebRoot defaults to "./www".
//
// Unlike original_source's parse_cmd, where getopt's "p:r:" spec accepts -r
// but the switch only ever assigns web_root from case 'w' (an unreachable,
// unadvertised flag), -r here is the flag that actually sets WebRoot — the
// corrected behavior spec.md §9 calls for.
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("sehttpd", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	portArg := fs.String("p", strconv.Itoa(defaultPort), "listen port")
	rootArg := fs.String("r", defaultWebRoot, "web root directory")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	port, err := strconv.Atoi(*portArg)
	if err != nil || port <= 0 || port > 65535 {
		port = defaultPort
	}

	return &Config{Port: port, WebRoot: *rootArg}, nil
}
