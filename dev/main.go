// Creates a local development environment: a starter config.json5 and
// the data directories the collector expects. Run from the repository
// root with `go run ./dev`.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
)

const starterConfig = `{
	credentials: {
		email: "officer@example.org",
		password: "change me",
		club_name: "Your Club Name",
	},
	platform: {
		// defaults target the real platform, point base_url at a stub
		// for local development
		// base_url: "http://localhost:8080",
		headless: true,
	},
	reports: {
		output_dir: "reports",
		formats: ["markdown", "excel", "pdf", "dashboard"],
	},
}
`

func create(recreate bool) error {
	_, err := os.Stat("go.mod")
	if os.IsNotExist(err) {
		return fmt.Errorf("the dev environment must be created in the repository root (the same directory as the 'go.mod' file)")
	}

	if recreate {
		err = os.Remove("config.local.json5")
		if err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	err = os.MkdirAll("data", 0777)
	if err != nil && !os.IsExist(err) {
		return err
	}
	err = os.MkdirAll("reports", 0777)
	if err != nil && !os.IsExist(err) {
		return err
	}

	_, err = os.Stat("config.local.json5")
	if err == nil {
		slog.Info("config.local.json5 already exists, leaving it alone")
		return nil
	}
	err = os.WriteFile("config.local.json5", []byte(starterConfig), 0600)
	if err != nil {
		return err
	}

	slog.Info("wrote starter config", "file", "config.local.json5")
	return nil
}

func main() {
	recreate := flag.Bool("recreate", false, "recreate the starter config even if one exists")
	flag.Parse()

	err := create(*recreate)
	if err != nil {
		slog.Error("failed to create dev environment", "err", err)
		os.Exit(1)
	}
}
